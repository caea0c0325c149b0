//go:build windows

package collector

import (
	"fmt"
	"math"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/hollowpeak/tracker-relay/internal/types"
)

var (
	modKernel32         = windows.NewLazySystemDLL("kernel32.dll")
	modPsapi            = windows.NewLazySystemDLL("psapi.dll")
	procReadProcessMem  = modKernel32.NewProc("ReadProcessMemory")
	procEnumProcModules = modPsapi.NewProc("EnumProcessModulesEx")
)

const listModulesDefault = 0x0

func init() {
	Open = openWindows
}

type winCollector struct {
	mu       sync.Mutex
	handle   windows.Handle
	baseAddr uint64
	variants []types.OffsetVariant
	active   *types.OffsetVariant
}

func openWindows(processName string, variants []types.OffsetVariant) (Collector, error) {
	pid, err := findPIDByName(processName)
	if err != nil {
		return nil, err
	}

	handle, err := windows.OpenProcess(windows.PROCESS_VM_READ|windows.PROCESS_QUERY_INFORMATION, false, pid)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrAttachFailed, err)
	}

	base, err := moduleBaseAddress(handle)
	if err != nil {
		windows.CloseHandle(handle)
		return nil, fmt.Errorf("%w: base address lookup: %v", types.ErrAttachFailed, err)
	}

	return &winCollector{handle: handle, baseAddr: base, variants: variants}, nil
}

func findPIDByName(name string) (uint32, error) {
	snap, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", types.ErrAttachFailed, err)
	}
	defer windows.CloseHandle(snap)

	var entry windows.ProcessEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))

	if err := windows.Process32First(snap, &entry); err != nil {
		return 0, types.ErrProcessNotRunning
	}
	for {
		exe := windows.UTF16ToString(entry.ExeFile[:])
		if exe == name {
			return entry.ProcessID, nil
		}
		if err := windows.Process32Next(snap, &entry); err != nil {
			break
		}
	}
	return 0, types.ErrProcessNotRunning
}

func moduleBaseAddress(handle windows.Handle) (uint64, error) {
	var hMod windows.Handle
	var cbNeeded uint32
	ret, _, _ := procEnumProcModules.Call(
		uintptr(handle),
		uintptr(unsafe.Pointer(&hMod)),
		unsafe.Sizeof(hMod),
		uintptr(unsafe.Pointer(&cbNeeded)),
		uintptr(listModulesDefault),
	)
	if ret == 0 {
		return 0, fmt.Errorf("EnumProcessModulesEx failed")
	}
	return uint64(hMod), nil
}

func (c *winCollector) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handle != 0 {
		windows.CloseHandle(c.handle)
		c.handle = 0
	}
}

func (c *winCollector) IsAlive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handle == 0 {
		return false
	}
	var exitCode uint32
	if err := windows.GetExitCodeProcess(c.handle, &exitCode); err != nil {
		return false
	}
	return exitCode == 259 // STILL_ACTIVE
}

func (c *winCollector) ActiveOffset() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return "", false
	}
	return c.active.Name, true
}

func (c *winCollector) Sample() (types.Pose, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isAliveLocked() {
		return types.Pose{}, types.ErrProcessTerminated
	}

	if c.active != nil {
		return c.sampleWithVariant(c.active)
	}

	for i := range c.variants {
		variant := &c.variants[i]
		pose, err := c.sampleWithVariant(variant)
		if err == nil {
			c.active = variant
			return pose, nil
		}
	}
	return types.Pose{}, &types.PointerChainError{Message: "no offset variant produced a valid pointer chain"}
}

func (c *winCollector) isAliveLocked() bool {
	if c.handle == 0 {
		return false
	}
	var exitCode uint32
	if err := windows.GetExitCodeProcess(c.handle, &exitCode); err != nil {
		return false
	}
	return exitCode == 259
}

func (c *winCollector) readUint64(addr uint64) (uint64, bool) {
	if addr == 0 {
		return 0, false
	}
	var buf uint64
	var nRead uintptr
	ret, _, _ := procReadProcessMem.Call(
		uintptr(c.handle),
		uintptr(addr),
		uintptr(unsafe.Pointer(&buf)),
		unsafe.Sizeof(buf),
		uintptr(unsafe.Pointer(&nRead)),
	)
	if ret == 0 || nRead != unsafe.Sizeof(buf) {
		return 0, false
	}
	return buf, true
}

func (c *winCollector) readTransform(addr uint64) (types.Transform, bool) {
	if addr == 0 {
		return types.Transform{}, false
	}
	var t types.Transform
	var nRead uintptr
	ret, _, _ := procReadProcessMem.Call(
		uintptr(c.handle),
		uintptr(addr),
		uintptr(unsafe.Pointer(&t)),
		unsafe.Sizeof(t),
		uintptr(unsafe.Pointer(&nRead)),
	)
	if ret == 0 || nRead != unsafe.Sizeof(t) {
		return types.Transform{}, false
	}
	return t, true
}

func (c *winCollector) readIntVector(addr uint64) (types.IntVector3, bool) {
	if addr == 0 {
		return types.IntVector3{}, false
	}
	var v types.IntVector3
	var nRead uintptr
	ret, _, _ := procReadProcessMem.Call(
		uintptr(c.handle),
		uintptr(addr),
		uintptr(unsafe.Pointer(&v)),
		unsafe.Sizeof(v),
		uintptr(unsafe.Pointer(&nRead)),
	)
	if ret == 0 || nRead != unsafe.Sizeof(v) {
		return types.IntVector3{}, false
	}
	return v, true
}

// sampleWithVariant walks the object-graph chain and the world-origin
// chain for one offset variant, composing the final pose. Grounded on
// win_proc.rs's get_location_with_offset.
func (c *winCollector) sampleWithVariant(v *types.OffsetVariant) (types.Pose, error) {
	steps := []struct {
		label  string
		offset uint64
	}{
		{"GlobalWorld", v.GlobalWorld},
		{"OwningGameInstance", v.WorldGameInstance},
		{"LocalPlayers", v.GameInstanceLocalPlayers},
		{"LocalPlayer", 0},
		{"PlayerController", v.PlayerPlayerController},
		{"Pawn", v.ControllerPawn},
		{"RootComponent", v.PawnRootComponent},
	}

	cursor := c.baseAddr
	for _, step := range steps {
		target := cursor + step.offset
		next, ok := c.readUint64(target)
		if !ok {
			return types.Pose{}, &types.PointerChainError{
				Message: fmt.Sprintf("%q dereference at 0x%X failed", step.label, target),
			}
		}
		cursor = next
	}

	transform, ok := c.readTransform(cursor + v.ComponentTransform)
	if !ok {
		return types.Pose{}, &types.ValueReadError{
			Message: fmt.Sprintf("transform read at 0x%X failed", cursor+v.ComponentTransform),
		}
	}

	worldOriginSteps := []struct {
		label  string
		offset uint64
	}{
		{"GlobalWorld", v.GlobalWorld},
		{"PersistentLevel", v.WorldPersistentLevel},
	}
	cursor = c.baseAddr
	for _, step := range worldOriginSteps {
		target := cursor + step.offset
		next, ok := c.readUint64(target)
		if !ok {
			return types.Pose{}, &types.PointerChainError{
				Message: fmt.Sprintf("world-origin %q dereference at 0x%X failed", step.label, target),
			}
		}
		cursor = next
	}

	origin, ok := c.readIntVector(cursor + v.LevelWorldOrigin)
	if !ok {
		return types.Pose{}, &types.ValueReadError{
			Message: fmt.Sprintf("world-origin vector read at 0x%X failed", cursor+v.LevelWorldOrigin),
		}
	}

	var pitch, yaw, roll float32
	if v.UsesQuaternion {
		roll, pitch, yaw = quaternionToEuler(transform.RotX, transform.RotY, transform.RotZ, transform.RotW)
	} else {
		pitch, yaw, roll = transform.RotX, transform.RotY, transform.RotZ
	}

	return types.Pose{
		X:     float32(transform.LocX) + float32(origin.X),
		Y:     float32(transform.LocY) + float32(origin.Y),
		Z:     float32(transform.LocZ) + float32(origin.Z),
		Pitch: pitch,
		Yaw:   yaw,
		Roll:  roll,
	}, nil
}

// quaternionToEuler converts a quaternion to degrees via the standard ZYX
// Tait-Bryan extraction, matching win_proc.rs's quat_to_euler.
func quaternionToEuler(x, y, z, w float32) (roll, pitch, yaw float32) {
	sinrCosp := 2 * (w*x + y*z)
	cosrCosp := 1 - 2*(x*x+y*y)
	roll = float32(math.Atan2(float64(sinrCosp), float64(cosrCosp)))

	sinp := 2 * (w*y - z*x)
	var pitchRad float64
	if math.Abs(float64(sinp)) >= 1 {
		pitchRad = math.Copysign(math.Pi/2, float64(sinp))
	} else {
		pitchRad = math.Asin(float64(sinp))
	}
	pitch = float32(pitchRad)

	sinyCosp := 2 * (w*z + x*y)
	cosyCosp := 1 - 2*(y*y+z*z)
	yaw = float32(math.Atan2(float64(sinyCosp), float64(cosyCosp)))

	const toDeg = 180.0 / math.Pi
	return roll * toDeg, pitch * toDeg, yaw * toDeg
}
