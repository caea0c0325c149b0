// Package offsets carries the compiled-in fallback offset-variant list: the
// pair of concrete pointer-chain layouts used when the offset loader has
// neither a fresh remote fetch nor a disk cache to fall back on.
package offsets

import "github.com/hollowpeak/tracker-relay/internal/types"

// Builtin is the seed variant list, restored from the original
// implementation's hardcoded OFFSET_VARIANTS table. Each variant is a
// named set of successive dereference offsets through the target's
// object graph.
var Builtin = []types.OffsetVariant{
	{
		Name:                     "v2.8.0",
		GlobalWorld:              0x8E752E8,
		WorldPersistentLevel:     0x38,
		WorldGameInstance:        0x1B8,
		LevelWorldOrigin:         0xC8,
		GameInstanceLocalPlayers: 0x40,
		PlayerPlayerController:   0x38,
		ControllerPawn:           0x340,
		PawnRootComponent:        0x1A0,
		ComponentTransform:       0x1E0,
		UsesQuaternion:           true,
	},
	{
		Name:                     "v3.0.0",
		GlobalWorld:              0x8CBB6C0,
		WorldPersistentLevel:     0x38,
		WorldGameInstance:        0x1B8,
		LevelWorldOrigin:         0xC8,
		GameInstanceLocalPlayers: 0x40,
		PlayerPlayerController:   0x38,
		ControllerPawn:           0x340,
		PawnRootComponent:        0x1A0,
		ComponentTransform:       0x1E0,
		UsesQuaternion:           true,
	},
}
