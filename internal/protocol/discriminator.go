package protocol

// Discriminator classifies an inbound message. It is the value of the
// message's "type" field, or of its "message" field for the pong reply.
type Discriminator string

const (
	TypeUnknown            Discriminator = ""
	TypeFindResult         Discriminator = "findResult"
	TypeActionResult       Discriminator = "actionResult"
	TypeGestureResult      Discriminator = "gestureResult"
	TypeLaunchResult       Discriminator = "launchResult"
	TypeTree               Discriminator = "tree"
	TypeStableTree         Discriminator = "stableTree"
	TypeTreeBeforeEvent    Discriminator = "treeBeforeEvent"
	TypePong               Discriminator = "pong"
	TypeAccessibilityEvent Discriminator = "accessibilityEvent"
	TypeAnnouncement       Discriminator = "announcement"
	TypeError              Discriminator = "error"
)

// IsTree reports whether messages of this type carry a captured tree.
func (d Discriminator) IsTree() bool {
	switch d {
	case TypeTree, TypeStableTree, TypeTreeBeforeEvent:
		return true
	}
	return false
}

// IsResult reports whether d answers an action, gesture or launch command.
func (d Discriminator) IsResult() bool {
	switch d {
	case TypeActionResult, TypeGestureResult, TypeLaunchResult:
		return true
	}
	return false
}

func (d Discriminator) String() string {
	if d == TypeUnknown {
		return "unknown"
	}
	return string(d)
}
