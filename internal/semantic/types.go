package semantic

// Tag is the static type assigned to an expression by Pass 3.
type Tag string

const (
	TagInt     Tag = "int"
	TagString  Tag = "string"
	TagNone    Tag = "none"
	TagUnknown Tag = "unknown"
	TagError   Tag = "error" // an error was already reported below this node
)

func (t Tag) String() string { return string(t) }

// callMarker records that a node's value originates from a function call.
type callMarker struct {
	callee string
}

// exprInfo is the cached result of evaluating one expression node.
type exprInfo struct {
	tag  Tag
	call *callMarker // nil if the value is not call-derived
}

// varTypes maps variable names to tags for one scope.
type varTypes map[string]Tag
