package config

// Special target tokens understood by deej in place of a process name.
const (
	TargetMaster   = "master"
	TargetMic      = "mic"
	TargetUnmapped = "deej.unmapped"
	TargetCurrent  = "deej.current"
	TargetSystem   = "system"
)

type specialTarget struct {
	id   string
	name string
}

// Everything Else stays last in every list shown to the user.
var specialTargets = []specialTarget{
	{TargetMaster, "Master Volume"},
	{TargetMic, "Microphone Input"},
	{TargetCurrent, "Current App"},
	{TargetSystem, "System Sounds"},
	{TargetUnmapped, "Everything Else"},
}

// IsSpecial reports whether id is one of the special target tokens.
func IsSpecial(id string) bool {
	for _, t := range specialTargets {
		if t.id == id {
			return true
		}
	}
	return false
}

// DisplayName returns the human readable name for a target identifier.
// Application names are returned unchanged.
func DisplayName(id string) string {
	for _, t := range specialTargets {
		if t.id == id {
			return t.name
		}
	}
	return id
}

// TargetID maps a display name back to its identifier. Unknown names are
// assumed to already be identifiers.
func TargetID(name string) string {
	for _, t := range specialTargets {
		if t.name == name {
			return t.id
		}
	}
	return name
}

// SpecialDisplayNames lists the display names of all special targets in dialog order.
func SpecialDisplayNames() []string {
	names := make([]string, 0, len(specialTargets))
	for _, t := range specialTargets {
		names = append(names, t.name)
	}
	return names
}

// SelectionTargets combines the applications and system entries picked in the
// add dialog into target identifiers, applications first.
func SelectionTargets(apps, system []string) []string {
	out := make([]string, 0, len(apps)+len(system))
	out = append(out, apps...)
	for _, name := range system {
		out = append(out, TargetID(name))
	}
	return out
}
