// Package fogmap implements the fog-of-war visibility model (spec
// §4.3): graded intensities, the FogSetting/FogMode gradient schedule,
// and per-team vision computation. The FogSetting/FogMode gradient
// arithmetic is ported verbatim from original_source's game/fog.rs,
// since the spec states the formula only in prose and a transcription
// error here would silently desync every client from the server.
package fogmap

import "fmt"

// FogIntensity grades how much of a cell a viewer can see, from
// brightest to darkest. The ordinal order matters: Combine keeps the
// numerically smaller (brighter) of two intensities, mirroring the
// derived Ord on the original enum.
type FogIntensity uint8

const (
	TrueSight FogIntensity = iota
	NormalVision
	Light
	Dark
)

func (i FogIntensity) String() string {
	switch i {
	case TrueSight:
		return "TrueSight"
	case NormalVision:
		return "NormalVision"
	case Light:
		return "Light"
	case Dark:
		return "Dark"
	default:
		return fmt.Sprintf("FogIntensity(%d)", uint8(i))
	}
}

// Combine returns the brighter of two intensities, the rule used when
// a cell is covered by more than one vision source.
func Combine(a, b FogIntensity) FogIntensity {
	if a < b {
		return a
	}
	return b
}

// FogSettingKind discriminates the FogSetting sum type.
type FogSettingKind uint8

const (
	SettingNone FogSettingKind = iota
	SettingLight
	SettingSharp
	SettingFade1
	SettingFade2
	SettingExtraDark
)

// FogSetting is the fog level in effect for a single turn: a kind plus
// a bonus-vision-range modifier (unused for None).
type FogSetting struct {
	Kind         FogSettingKind
	BonusVision  uint8
}

func (s FogSetting) String() string {
	switch s.Kind {
	case SettingNone:
		return "No Fog"
	case SettingLight:
		return fmt.Sprintf("Twilight (+%d)", s.BonusVision)
	case SettingSharp:
		return fmt.Sprintf("Sharp (+%d)", s.BonusVision)
	case SettingFade1:
		return fmt.Sprintf("Fade 1 (+%d)", s.BonusVision)
	case SettingFade2:
		return fmt.Sprintf("Fade 2 (+%d)", s.BonusVision)
	case SettingExtraDark:
		return fmt.Sprintf("Extra Dark (+%d)", s.BonusVision)
	default:
		return "?"
	}
}

// Intensity reports the base fog intensity a setting imposes, before
// any per-unit TrueSight override.
func (s FogSetting) Intensity() FogIntensity {
	switch s.Kind {
	case SettingNone:
		return TrueSight
	case SettingLight:
		return Light
	default:
		return Dark
	}
}

// NormalRange shrinks a contributor's own (already bonus-adjusted)
// vision range down to the radius that still reads as NormalVision
// rather than Light, per the setting in effect (original_source's
// repeated "normal_range" match arm in unit.rs/terrain.rs/token.rs):
// ExtraDark collapses it to nothing, Fade1/Fade2 peel one or two rings
// off the edge, everything else leaves it untouched.
func (s FogSetting) NormalRange(visionRange int) int {
	switch s.Kind {
	case SettingExtraDark:
		return 0
	case SettingFade1:
		floor := visionRange
		if floor < 1 {
			floor = 1
		}
		return floor - 1
	case SettingFade2:
		floor := visionRange
		if floor < 2 {
			floor = 2
		}
		return floor - 2
	default:
		return visionRange
	}
}

var (
	gradientWithNone = []FogSetting{
		{Kind: SettingNone},
		{Kind: SettingSharp, BonusVision: 2},
		{Kind: SettingSharp, BonusVision: 1},
		{Kind: SettingSharp, BonusVision: 0},
	}
	gradientDark = []FogSetting{
		{Kind: SettingFade1, BonusVision: 2},
		{Kind: SettingFade2, BonusVision: 1},
		{Kind: SettingExtraDark, BonusVision: 0},
	}
	gradientLight = []FogSetting{
		{Kind: SettingLight, BonusVision: 0},
		{Kind: SettingFade2, BonusVision: 3},
		{Kind: SettingFade2, BonusVision: 1},
	}
	gradientLarge = []FogSetting{
		{Kind: SettingLight, BonusVision: 0},
		{Kind: SettingFade2, BonusVision: 3},
		{Kind: SettingFade2, BonusVision: 2},
		{Kind: SettingFade2, BonusVision: 1},
		{Kind: SettingFade2, BonusVision: 0},
		{Kind: SettingExtraDark, BonusVision: 0},
	}
)

// FogModeKind discriminates the FogMode sum type.
type FogModeKind uint8

const (
	ModeConstant FogModeKind = iota
	ModeGradientWithNone
	ModeGradientDark
	ModeGradientLight
	ModeGradientLarge
)

// FogMode is a map's configured fog behavior: either a single constant
// setting, or a gradient that cycles between bright and dark phases
// over a number of turns scaled by player count.
type FogMode struct {
	Kind            FogModeKind
	Constant        FogSetting // meaningful only for ModeConstant
	BrightDuration  uint8      // 1..255
	DarkDuration    uint8      // 1..255
	StartDark       bool
}

func (m FogMode) gradient() []FogSetting {
	switch m.Kind {
	case ModeGradientWithNone:
		return gradientWithNone
	case ModeGradientDark:
		return gradientDark
	case ModeGradientLight:
		return gradientLight
	case ModeGradientLarge:
		return gradientLarge
	default:
		return nil
	}
}

// IsFoggy reports whether the fog setting in effect for this turn is
// anything but None.
func (m FogMode) IsFoggy(turn, playerCount int) bool {
	s := m.FogSetting(turn, playerCount)
	return s.Kind != SettingNone
}

// FogSetting computes the fog setting in effect for a given turn
// (ported from original_source's FogMode::fog_setting). It never
// returns FogIntensity::NormalVision as the setting's own intensity,
// matching the original's documented contract.
func (m FogMode) FogSetting(turn, playerCount int) FogSetting {
	if m.Kind == ModeConstant {
		return m.Constant
	}
	gradient := m.gradient()
	return gradientProgress(gradient, int(m.BrightDuration), int(m.DarkDuration), m.StartDark, turn, playerCount)
}

// TurnsUntilRepeat reports the length of one full bright-dark-bright
// cycle, in turns.
func (m FogMode) TurnsUntilRepeat(playerCount int) int {
	if m.Kind == ModeConstant {
		return 1
	}
	gradient := m.gradient()
	return int(m.BrightDuration) + int(m.DarkDuration) + 2*intermediateTurns(gradient, playerCount)
}

// intermediateTurns reports how many turns each transitional gradient
// step is held for: every intermediate setting is used K times, such
// that K*intermediateSettings is the largest value <= player_count-1
// (with a floor of 1 intermediate-setting repetition).
func intermediateTurns(gradient []FogSetting, playerCount int) int {
	if len(gradient) <= 2 {
		panic(fmt.Sprintf("fogmap: not much of a fog gradient when there are only %d steps", len(gradient)))
	}
	intermediateSettings := len(gradient) - 2
	k := (playerCount - 1) / intermediateSettings
	if k < 1 {
		k = 1
	}
	return k * intermediateSettings
}

func gradientProgress(gradient []FogSetting, brightDuration, darkDuration int, startDark bool, turn, playerCount int) FogSetting {
	gradientDuration := intermediateTurns(gradient, playerCount)
	progress := turn
	if startDark {
		progress += brightDuration + gradientDuration
	}
	cycleDuration := brightDuration + darkDuration + 2*gradientDuration
	progress = progress % cycleDuration

	switch {
	case progress < brightDuration:
		return gradient[0]
	case progress < brightDuration+gradientDuration:
		p := progress - brightDuration
		return gradient[1+p*(len(gradient)-2)/gradientDuration]
	case progress < brightDuration+gradientDuration+darkDuration:
		return gradient[len(gradient)-1]
	default:
		p := cycleDuration - progress - 1
		return gradient[1+p*(len(gradient)-2)/gradientDuration]
	}
}
