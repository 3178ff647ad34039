package partkv

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// ResponseKind discriminates the Response variants in spec section 6.
type ResponseKind uint8

const (
	RespValue ResponseKind = iota
	RespNotFound
	RespNoSuchDomain
	RespInterrupted
	RespInternalError
)

// Response is the result of a single get.
type Response struct {
	Kind  ResponseKind
	Value []byte // valid only when Kind == RespValue; caller-owned copy
	Err   string // valid only when Kind == RespInternalError
}

func valueResponse(v []byte) Response   { return Response{Kind: RespValue, Value: v} }
func notFoundResponse() Response        { return Response{Kind: RespNotFound} }
func noSuchDomainResponse() Response    { return Response{Kind: RespNoSuchDomain} }
func interruptedResponse() Response     { return Response{Kind: RespInterrupted} }
func internalErrorResponse(err error) Response {
	return Response{Kind: RespInternalError, Err: err.Error()}
}

func (r Response) String() string {
	switch r.Kind {
	case RespValue:
		return fmt.Sprintf("value(%q)", r.Value)
	case RespNotFound:
		return "not found"
	case RespNoSuchDomain:
		return "no such domain"
	case RespInterrupted:
		return "interrupted"
	case RespInternalError:
		return fmt.Sprintf("internal error: %s", r.Err)
	default:
		return "unknown response"
	}
}

// BulkResponseKind discriminates the BulkResponse variants.
type BulkResponseKind uint8

const (
	BulkOK BulkResponseKind = iota
	BulkNoSuchDomain
	BulkInterrupted
	BulkInternalError
)

// BulkResponse is the result of a getBulk call.
type BulkResponse struct {
	Kind      BulkResponseKind
	Responses []Response // valid only when Kind == BulkOK; same length/order as the request's keys
	Err       string     // valid only when Kind == BulkInternalError
}

// handlerState is the Handler's lifecycle state machine (spec section 4.7).
type handlerState int32

const (
	stateConstructing handlerState = iota
	stateReady
	stateShuttingDown
	stateTerminated
)

// Handler is the public facade: get and getBulk entry points, timing, and
// shutdown. Constructed exactly once (via HandlerAssembler.Assemble), used
// concurrently by many callers, shut down exactly once.
type Handler struct {
	cfg cfg

	mu    sync.RWMutex
	state handlerState

	domains  []*DomainAccessor // dense, indexed by domain id; nil entries are unknown domains
	executor *RequestExecutor
	metrics  *metrics

	bulkSem *semaphore.Weighted // shared by every GetBulk call; nil when WithMaxBulkInFlight(0) (unbounded)
}

func (h *Handler) currentState() handlerState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

// domainAccessor returns the DomainAccessor for domainID, or nil if it is
// out of range or an unassigned slot (both meaning NoSuchDomain to a
// caller).
func (h *Handler) domainAccessor(domainID uint32) *DomainAccessor {
	if int(domainID) >= len(h.domains) {
		return nil
	}
	return h.domains[domainID]
}

// Get performs a single-key lookup. See spec section 4.7/section 6.
func (h *Handler) Get(ctx context.Context, domainID uint32, key []byte) Response {
	start := time.Now()
	defer func() {
		if h.metrics != nil {
			h.metrics.getLatency.Observe(time.Since(start).Seconds())
		}
	}()

	if h.currentState() != stateReady {
		return internalErrorResponse(ErrHandlerNotReady)
	}

	dom := h.domainAccessor(domainID)
	if dom == nil {
		return noSuchDomainResponse()
	}

	fut := h.executor.Submit(func(scratch *Scratch) (interface{}, error) {
		outcome := dom.get(key, scratch)
		return outcome, nil
	})

	val, err, ok := fut.Wait(ctx)
	if !ok {
		return interruptedResponse()
	}
	if err != nil {
		return internalErrorResponse(err)
	}
	outcome := val.(ReadOutcome)
	return responseFromOutcome(outcome)
}

func responseFromOutcome(outcome ReadOutcome) Response {
	switch {
	case outcome.isFound():
		cp := make([]byte, len(outcome.value))
		copy(cp, outcome.value)
		return valueResponse(cp)
	case outcome.isNotFound():
		return notFoundResponse()
	default:
		return internalErrorResponse(outcome.err)
	}
}

// GetBulk performs one lookup per key, preserving input order by index.
// The domain is resolved once; an unknown domain short-circuits without
// enqueueing anything. The first Interrupted sub-result collapses the
// whole call to BulkInterrupted (spec section 4.7).
func (h *Handler) GetBulk(ctx context.Context, domainID uint32, keys [][]byte) BulkResponse {
	if h.currentState() != stateReady {
		return BulkResponse{Kind: BulkInternalError, Err: ErrHandlerNotReady.Error()}
	}

	dom := h.domainAccessor(domainID)
	if dom == nil {
		return BulkResponse{Kind: BulkNoSuchDomain}
	}

	if len(keys) == 0 {
		return BulkResponse{Kind: BulkOK, Responses: []Response{}}
	}

	futures := make([]*Future, len(keys))
	for i, key := range keys {
		key := key
		if h.bulkSem != nil {
			if err := h.bulkSem.Acquire(ctx, 1); err != nil {
				// Caller's context died while we were still fanning out;
				// treat exactly like an interrupted waiter below by
				// recording no future for the remaining keys.
				return BulkResponse{Kind: BulkInterrupted}
			}
		}
		futures[i] = h.executor.Submit(func(scratch *Scratch) (interface{}, error) {
			if h.bulkSem != nil {
				defer h.bulkSem.Release(1)
			}
			outcome := dom.get(key, scratch)
			return outcome, nil
		})
	}

	responses := make([]Response, len(keys))
	for i, fut := range futures {
		val, err, ok := fut.Wait(ctx)
		if !ok {
			return BulkResponse{Kind: BulkInterrupted}
		}
		if err != nil {
			responses[i] = internalErrorResponse(err)
			continue
		}
		responses[i] = responseFromOutcome(val.(ReadOutcome))
	}

	return BulkResponse{Kind: BulkOK, Responses: responses}
}

// ShutDown shuts down every domain-accessor (domain ascending, partition
// ascending within each), then shuts down the executor. Idempotent: a
// second call is a no-op that returns ErrAlreadyTerminated.
func (h *Handler) ShutDown() error {
	h.mu.Lock()
	if h.state == stateTerminated || h.state == stateShuttingDown {
		h.mu.Unlock()
		return ErrAlreadyTerminated
	}
	h.state = stateShuttingDown
	h.mu.Unlock()

	for _, dom := range h.domains {
		if dom == nil {
			continue
		}
		dom.shutDown(h.cfg.logger)
	}
	h.executor.Shutdown()

	h.mu.Lock()
	h.state = stateTerminated
	h.mu.Unlock()

	return nil
}

// String renders a short human-readable summary, used by logging and
// tests; it does not attempt to dump the full accessor topology (use
// dumpForLog for that at LogLevelDebug).
func (h *Handler) String() string {
	return fmt.Sprintf("Handler{domains=%d, state=%d}", len(h.domains), h.currentState())
}
