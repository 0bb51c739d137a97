package validator

// RequiredParams maps a step op to the parameters it must carry, in the
// order they are checked. Ops missing from the table are accepted as-is.
var RequiredParams = map[string][]string{
	"rectangle_center": {"w", "h"},
	"circle_center":    {"diameter"},
	"extrude":          {"depth"},
}
