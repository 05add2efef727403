package utils

import (
	"strings"
)

const NAME_LIMIT = 31

// StripName replaces every character outside [A-Za-z0-9_] in the latin range with '_'.
func StripName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		case r >= 0xff:
			return r
		}
		return '_'
	}, name)
}

const BONE_PREFIX = "SK_"

// EngineBoneName prefixes names of text records with SK_ unless they
// already carry it: bone Spine -> SK_Spine.
func EngineBoneName(name string) string {
	if name == "" || strings.HasPrefix(name, BONE_PREFIX) {
		return name
	}
	return BONE_PREFIX + name
}

// BoneNameToTool moves engine side prefixes to suffixes: SK_R_Arm -> SK_Arm_R.
func BoneNameToTool(name string) string {
	if strings.HasPrefix(name, "SK_R_") {
		name = "SK_" + name[5:] + "_R"
	}
	if strings.HasPrefix(name, "SK_L_") {
		name = "SK_" + name[5:] + "_L"
	}
	return StripName(name)
}

// BoneNameToEngine is the inverse of BoneNameToTool, limited to NAME_LIMIT.
func BoneNameToEngine(name string) string {
	if strings.HasPrefix(name, "SK_") && strings.HasSuffix(name, "_R") && len(name) > 5 {
		name = "SK_R_" + name[3:len(name)-2]
	}
	if strings.HasPrefix(name, "SK_") && strings.HasSuffix(name, "_L") && len(name) > 5 {
		name = "SK_L_" + name[3:len(name)-2]
	}
	return TruncateName(StripName(name))
}

// GroupName builds a mesh group name: digits get an x prefix, then strip and truncate.
func GroupName(name string) string {
	if name != "" && name[0] >= '0' && name[0] <= '9' {
		name = "x" + name
	}
	return TruncateName(StripName(name))
}

func TruncateName(name string) string {
	if len(name) <= NAME_LIMIT {
		return name
	}
	cut := NAME_LIMIT
	for cut > 0 && !isRuneStart(name[cut]) {
		cut--
	}
	return name[:cut]
}

func isRuneStart(b byte) bool {
	return b&0xc0 != 0x80
}
