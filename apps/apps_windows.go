//go:build windows

package apps

import (
	"fmt"
	"runtime"
	"unsafe"

	ole "github.com/go-ole/go-ole"
	ps "github.com/mitchellh/go-ps"
	"github.com/moutend/go-wca/pkg/wca"
)

// New returns a lister of processes owning an audio session on the default output device.
func New() Lister {
	return sessionLister{}
}

type sessionLister struct{}

func (sessionLister) List() ([]string, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED); err != nil {
		oleErr, ok := err.(*ole.OleError)
		// S_FALSE: already initialised on this thread.
		if !ok || oleErr.Code() != 1 {
			return nil, fmt.Errorf("failed to initialize COM: %w", err)
		}
	}
	defer ole.CoUninitialize()

	var enumerator *wca.IMMDeviceEnumerator
	if err := wca.CoCreateInstance(
		wca.CLSID_MMDeviceEnumerator, 0, wca.CLSCTX_ALL,
		wca.IID_IMMDeviceEnumerator, &enumerator,
	); err != nil {
		return nil, fmt.Errorf("failed to create device enumerator: %w", err)
	}
	defer enumerator.Release()

	var device *wca.IMMDevice
	if err := enumerator.GetDefaultAudioEndpoint(wca.ERender, wca.EConsole, &device); err != nil {
		return nil, fmt.Errorf("failed to get default output device: %w", err)
	}
	defer device.Release()

	var manager *wca.IAudioSessionManager2
	if err := device.Activate(wca.IID_IAudioSessionManager2, wca.CLSCTX_ALL, nil, &manager); err != nil {
		return nil, fmt.Errorf("failed to activate session manager: %w", err)
	}
	defer manager.Release()

	var sessions *wca.IAudioSessionEnumerator
	if err := manager.GetSessionEnumerator(&sessions); err != nil {
		return nil, fmt.Errorf("failed to enumerate sessions: %w", err)
	}
	defer sessions.Release()

	var count int
	if err := sessions.GetCount(&count); err != nil {
		return nil, fmt.Errorf("failed to count sessions: %w", err)
	}

	var names []string
	for i := 0; i < count; i++ {
		name, ok := sessionProcessName(sessions, i)
		if ok {
			names = append(names, name)
		}
	}
	return normalize(names), nil
}

func sessionProcessName(sessions *wca.IAudioSessionEnumerator, i int) (string, bool) {
	var control *wca.IAudioSessionControl
	if err := sessions.GetSession(i, &control); err != nil {
		return "", false
	}
	defer control.Release()

	dispatch, err := control.QueryInterface(wca.IID_IAudioSessionControl2)
	if err != nil {
		return "", false
	}
	control2 := (*wca.IAudioSessionControl2)(unsafe.Pointer(dispatch))
	defer control2.Release()

	var pid uint32
	// The system sounds session reports an error here; it is offered as a special target instead.
	if err := control2.GetProcessId(&pid); err != nil || pid == 0 {
		return "", false
	}

	proc, err := ps.FindProcess(int(pid))
	if err != nil || proc == nil {
		return "", false
	}
	return proc.Executable(), true
}
