package digitizer

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/cu-axion/haloscope-daq/faultkind"
)

// Board is the process-global handle to the digitizer hardware. Per the
// design note that the vendor SDK is process-global state, Board is
// constructed once via Open and never again for the life of the
// process; a second Open call fails.
type Board struct {
	sdk BoardSDK
	log *slog.Logger

	mu     sync.Mutex
	closed bool
}

var (
	boardOnce sync.Once
	board     *Board
	boardErr  error
)

// Open constructs the process-global Board around sdk. Only the first
// call actually opens; subsequent calls return the same Board and an
// error, since the digitizer SDK cannot be initialized twice.
func Open(sdk BoardSDK, systemID, boardID uint32, log *slog.Logger) (*Board, error) {
	if log == nil {
		log = slog.Default()
	}
	first := false
	boardOnce.Do(func() {
		first = true
		if err := sdk.OpenBoard(systemID, boardID); err != nil {
			boardErr = faultkind.New(faultkind.HardwareTransport, "OpenBoard", err)
			return
		}
		board = &Board{sdk: sdk, log: log.With("component", "digitizer")}
	})
	if !first {
		return board, fmt.Errorf("digitizer: board already opened, singleton violated")
	}
	return board, boardErr
}

func (b *Board) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.sdk.Close()
}

func (b *Board) SDK() BoardSDK { return b.sdk }
