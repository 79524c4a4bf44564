package constants

import "time"

// RequestTimeout bounds a single request/response round trip between actors.
const RequestTimeout = 2 * time.Second

// CompensationTimeout bounds best-effort compensation messages sent while
// unwinding a failed relocation.
const CompensationTimeout = 500 * time.Millisecond

// MailboxCapacity is the default number of queued messages per actor mailbox.
const MailboxCapacity = 64

// OrchestratorInboxCapacity is the capacity of the shared inboxes the
// orchestrator receives planet and explorer traffic on.
const OrchestratorInboxCapacity = 1024

// ExplorerTickInterval is how often a running explorer's AI takes a step.
const ExplorerTickInterval = 500 * time.Millisecond

// ExplorerRateLimit is the default explorer-to-planet request rate per second.
const ExplorerRateLimit = 20.0

// ExplorerRateBurst is the default explorer-to-planet request burst.
const ExplorerRateBurst = 5

// MaxPlanets caps the number of planets a galaxy may hold.
const MaxPlanets = 256

// MaxExplorers caps the number of explorers a galaxy may hold.
const MaxExplorers = 256

// ShutdownTimeout bounds how long Shutdown waits for actors to exit.
const ShutdownTimeout = 10 * time.Second

// MinEventBusBufferSize is the minimum buffer per subscriber channel.
const MinEventBusBufferSize = 1000

// EventBusPublishTimeout is the per-subscriber timeout for critical events.
const EventBusPublishTimeout = 200 * time.Millisecond

// JournalBufferSize is the number of events the journal queues before dropping.
const JournalBufferSize = 4096

// RecentEventsShown is how many events the dashboard keeps on screen.
const RecentEventsShown = 12
