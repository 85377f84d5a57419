package storage

import (
	"context"

	_ "github.com/mattn/go-sqlite3"

	"github.com/skyfield/groundtrack/internal/capture"
	"github.com/skyfield/groundtrack/internal/track"
)

// Store provides an interface for persisting capture sessions, per-image
// records, derived speed samples and the session result. All operations
// that write to the database should be considered atomic.
type Store interface {
	// CreateSession initializes a new capture session and returns its
	// unique identifier.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - cameraModel: Camera model name (e.g., "libcamera-still")
	//   - cameraID: Unique identifier of the camera
	//   - config: Optional camera configuration. Can be string, []byte,
	//     or JSON-serializable object
	CreateSession(ctx context.Context, cameraModel, cameraID string, config any) (sessionID int64, err error)

	// Session retrieves a specific capture session by its ID.
	// Returns nil if the session is not found.
	Session(ctx context.Context, id int64) (session *Session, err error)

	// Sessions returns all capture sessions stored in the database,
	// ordered by start time in ascending order.
	Sessions(ctx context.Context) (sessions []*Session, err error)

	// StoreCapture saves one captured image record for a session.
	StoreCapture(ctx context.Context, sessionID int64, img capture.Image) (captureID int64, err error)

	// StoreSamples saves the session's speed samples in a single
	// transaction.
	StoreSamples(ctx context.Context, sessionID int64, samples []track.Sample) error

	// StoreResult saves the session's aggregated result.
	StoreResult(ctx context.Context, sessionID int64, result *track.Result) error

	// Captures returns a session's captured images in capture order.
	Captures(ctx context.Context, sessionID int64) ([]capture.Image, error)

	// Samples returns a session's speed samples in capture order.
	Samples(ctx context.Context, sessionID int64) ([]SampleRecord, error)

	// Result returns a session's aggregated result, or nil if the
	// session produced none.
	Result(ctx context.Context, sessionID int64) (*ResultRecord, error)

	// Close releases all database connections and resources. After Close
	// is called, the store instance cannot be reused. It is safe to call
	// Close multiple times.
	Close() error
}
