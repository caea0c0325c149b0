package types

// OffsetVariant names a byte-offset pointer chain sufficient to walk a
// target process's object graph down to a pose. Multiple variants are
// carried because the target binary's layout shifts between builds; the
// collector probes them in order and caches the first that reads
// successfully.
type OffsetVariant struct {
	Name string `json:"name"`

	GlobalWorld          uint64 `json:"globalWorld"`
	WorldPersistentLevel uint64 `json:"worldPersistentLevel"`
	WorldGameInstance    uint64 `json:"worldGameInstance"`
	LevelWorldOrigin     uint64 `json:"levelWorldOrigin"`
	GameInstanceLocalPlayers uint64 `json:"gameInstanceLocalPlayers"`
	PlayerPlayerController   uint64 `json:"playerPlayerController"`
	ControllerPawn           uint64 `json:"controllerPawn"`
	PawnRootComponent        uint64 `json:"pawnRootComponent"`
	ComponentTransform       uint64 `json:"componentTransform"`

	// UsesQuaternion selects the rotation decode: true derives Euler angles
	// from a quaternion via ZYX conversion, false reads Euler directly.
	UsesQuaternion bool `json:"usesQuaternion"`
}
