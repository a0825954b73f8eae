package roles

import (
	"fmt"
	"strings"

	leadx "github.com/thanawat-k/leadqual/agent/lead"
)

func intakeAsk(rec *leadx.Record) string {
	if rec == nil || !rec.HasAny() {
		return "Hi! Happy to help you find the right plan. Could you tell me your name and what you're looking for?"
	}

	var asks []string
	if rec.Name == "" {
		asks = append(asks, "your name")
	}
	asks = append(asks, "whether this is for a large organization, a smaller business, or personal use")

	return "Thanks! To point you at the right specialist, could you share " + joinAsks(asks) + "?"
}

// askMissing requests whatever still blocks qualification. Email leads the
// list since it is the contact detail routing needs.
func askMissing(rec *leadx.Record) string {
	if rec == nil {
		return "Could you share your name and the best email to reach you?"
	}

	var asks []string
	switch {
	case rec.Email == "" && rec.Name == "":
		asks = append(asks, "your name and the best email to reach you")
	case rec.Email == "":
		asks = append(asks, "the best email to reach you")
	case rec.Name == "":
		asks = append(asks, "your name")
	}
	if rec.InterestArea == "" {
		asks = append(asks, "whether this is for a large organization, a smaller business, or personal use")
	}
	if len(asks) == 0 {
		asks = append(asks, "anything else the team should know before they reach out")
	}

	return "Got it. Could you also share " + joinAsks(asks) + "?"
}

func segmentGreeting(segment string) string {
	switch segment {
	case "enterprise":
		return "You're in the right place for enterprise plans. Happy to walk through rollout, security, and procurement. Who am I speaking with?"
	case "smb":
		return "Great, our business plans are built for growing teams. Could I grab your name and work email?"
	case "individual":
		return "Our personal plan sounds like a fit. May I have your name and email so I can send over the details?"
	}
	return "Happy to help. Could I grab your name and email?"
}

func wrapUpReply(segment string, rec *leadx.Record) string {
	who := strings.TrimSpace(rec.Name)
	if who == "" {
		who = "there"
	}
	switch segment {
	case "enterprise":
		return fmt.Sprintf("Perfect, thanks %s. I've passed your details to our enterprise team; they'll reach out shortly to set up a demo and talk through rollout.", who)
	case "smb":
		return fmt.Sprintf("Thanks %s! Our business team will be in touch shortly with plan options that fit a growing team.", who)
	case "individual":
		return fmt.Sprintf("All set, %s. Someone from our team will email you the personal plan details shortly.", who)
	}
	return fmt.Sprintf("Thanks %s, our team will be in touch shortly.", who)
}

func joinAsks(asks []string) string {
	switch len(asks) {
	case 0:
		return ""
	case 1:
		return asks[0]
	case 2:
		return asks[0] + " and " + asks[1]
	default:
		return strings.Join(asks[:len(asks)-1], ", ") + ", and " + asks[len(asks)-1]
	}
}
