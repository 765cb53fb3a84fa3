package dialog

import "kopilka/internal/session"

// Next is the transition guard for the recording flow: given the current
// step, the event and whether the picked category has children, it returns
// the step to enter. ok is false when the event is not legal at the step.
//
// Browsing and report events run outside the recording flow; they are not
// transitions and do not appear here. Cancel and MainMenu are legal
// everywhere and always land on idle.
func Next(step session.Step, ev Event, hasChildren bool) (session.Step, bool) {
	switch ev.(type) {
	case Cancel, MainMenu:
		return session.StepIdle, true
	}

	switch step {
	case session.StepIdle:
		if _, ok := ev.(StartTransaction); ok {
			return session.StepCategory, true
		}
	case session.StepCategory:
		if _, ok := ev.(SelectCategory); ok {
			if hasChildren {
				return session.StepSubcategory, true
			}
			return session.StepComment, true
		}
	case session.StepSubcategory:
		if _, ok := ev.(SelectSubcategory); ok {
			return session.StepComment, true
		}
	case session.StepComment:
		if _, ok := ev.(SubmitComment); ok {
			return session.StepAmount, true
		}
	case session.StepAmount:
		if _, ok := ev.(SubmitAmount); ok {
			return session.StepConfirm, true
		}
	case session.StepConfirm:
		if _, ok := ev.(Confirm); ok {
			return session.StepIdle, true
		}
	}
	return step, false
}
