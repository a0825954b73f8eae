package state

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewSessionDefaults(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := NewSession("sess-1", now)

	if s.ActiveRole != RoleIntake {
		t.Fatalf("ActiveRole = %q, want %q", s.ActiveRole, RoleIntake)
	}
	if s.TurnCount != 0 {
		t.Fatalf("TurnCount = %d, want 0", s.TurnCount)
	}
	if len(s.HandoffHistory) != 0 {
		t.Fatalf("HandoffHistory len = %d, want 0", len(s.HandoffHistory))
	}
	if !s.CreatedAt.Equal(now) || !s.UpdatedAt.Equal(now) {
		t.Fatalf("timestamps = %v/%v, want %v", s.CreatedAt, s.UpdatedAt, now)
	}
}

func TestApplyHandoffAppendsHistory(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := NewSession("sess-1", start)

	later := start.Add(time.Minute)
	if err := s.ApplyHandoff(RoleEnterprise, "interest identified: enterprise", later); err != nil {
		t.Fatalf("ApplyHandoff() error = %v", err)
	}

	if s.ActiveRole != RoleEnterprise {
		t.Fatalf("ActiveRole = %q, want %q", s.ActiveRole, RoleEnterprise)
	}
	if len(s.HandoffHistory) != 1 {
		t.Fatalf("HandoffHistory len = %d, want 1", len(s.HandoffHistory))
	}

	h := s.HandoffHistory[0]
	if h.From != RoleIntake || h.To != RoleEnterprise {
		t.Fatalf("handoff = %q->%q, want %q->%q", h.From, h.To, RoleIntake, RoleEnterprise)
	}
	if h.Reason != "interest identified: enterprise" {
		t.Fatalf("handoff reason = %q", h.Reason)
	}
	if !s.UpdatedAt.Equal(later) {
		t.Fatalf("UpdatedAt = %v, want %v", s.UpdatedAt, later)
	}

	last := s.LastHandoff()
	if last == nil || last.To != RoleEnterprise {
		t.Fatalf("LastHandoff() = %+v", last)
	}
}

func TestApplyHandoffRejectsInvalidTargets(t *testing.T) {
	t.Parallel()

	now := time.Now()
	s := NewSession("sess-1", now)

	if err := s.ApplyHandoff(Role("billing"), "nope", now); !errors.Is(err, ErrUnknownRole) {
		t.Fatalf("ApplyHandoff(unknown) error = %v, want ErrUnknownRole", err)
	}
	if err := s.ApplyHandoff(RoleIntake, "loop", now); !errors.Is(err, ErrSelfHandoff) {
		t.Fatalf("ApplyHandoff(self) error = %v, want ErrSelfHandoff", err)
	}

	if s.ActiveRole != RoleIntake || len(s.HandoffHistory) != 0 {
		t.Fatalf("rejected handoff mutated session: role=%q history=%d", s.ActiveRole, len(s.HandoffHistory))
	}
}

func TestSessionValidate(t *testing.T) {
	t.Parallel()

	now := time.Now()

	cases := []struct {
		name    string
		mutate  func(*Session)
		wantErr error
	}{
		{name: "valid", mutate: func(s *Session) {}, wantErr: nil},
		{name: "empty id", mutate: func(s *Session) { s.SessionID = "  " }, wantErr: ErrInvalidSession},
		{name: "bad role", mutate: func(s *Session) { s.ActiveRole = "support" }, wantErr: ErrUnknownRole},
		{
			name: "bad history entry",
			mutate: func(s *Session) {
				s.HandoffHistory = append(s.HandoffHistory, Handoff{From: RoleIntake, To: "??"})
			},
			wantErr: ErrUnknownRole,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			s := NewSession("sess-1", now)
			tc.mutate(s)

			err := s.Validate()
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("Validate() error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now()

	s := NewSession("sess-1", now)
	if err := s.ApplyHandoff(RoleSMB, "interest identified: smb", now); err != nil {
		t.Fatalf("ApplyHandoff() error = %v", err)
	}

	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Load(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.ActiveRole != RoleSMB || len(got.HandoffHistory) != 1 {
		t.Fatalf("loaded session = %+v", got)
	}

	// Mutations on the loaded copy must not leak back into the store.
	got.ActiveRole = RoleIndividual
	got.HandoffHistory[0].Reason = "changed"

	again, err := store.Load(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Load() second error = %v", err)
	}
	if again.ActiveRole != RoleSMB {
		t.Fatalf("store aliased live session: role = %q", again.ActiveRole)
	}
	if again.HandoffHistory[0].Reason != "interest identified: smb" {
		t.Fatalf("store aliased handoff history: %q", again.HandoffHistory[0].Reason)
	}
}

func TestMemoryStoreLoadMissing(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()

	if _, err := store.Load(context.Background(), "nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Load() error = %v, want ErrSessionNotFound", err)
	}
	if _, err := store.Load(context.Background(), "  "); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("Load(blank) error = %v, want ErrInvalidSession", err)
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now()

	if err := store.Save(ctx, NewSession("sess-1", now)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Delete(ctx, "sess-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Load(ctx, "sess-1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Load() after delete error = %v, want ErrSessionNotFound", err)
	}
	if store.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", store.Len())
	}
}

func TestMemoryStoreSaveRejectsInvalid(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()

	if err := store.Save(context.Background(), nil); !errors.Is(err, ErrNilSession) {
		t.Fatalf("Save(nil) error = %v, want ErrNilSession", err)
	}

	s := NewSession("", time.Now())
	if err := store.Save(context.Background(), s); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("Save(no id) error = %v, want ErrInvalidSession", err)
	}
}
