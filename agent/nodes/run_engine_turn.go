package turnnode

import (
	"context"
	"fmt"

	contractx "github.com/thanawat-k/leadqual/agent/contract"
)

func RunEngineTurn(
	ctx context.Context,
	in *GraphState,
	engine contractx.Engine,
) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	result, err := engine.RunTurn(ctx, in.Session, in.Lead, in.Text)
	if err != nil {
		return nil, err
	}

	in.Turn = result
	in.Lead = result.Lead
	in.Reply = result.Reply
	return in, nil
}
