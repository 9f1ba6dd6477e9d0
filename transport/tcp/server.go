package tcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"venue/internal/book"
	"venue/internal/domain"
	"venue/internal/engine"
	"venue/internal/money"
	"venue/internal/workerpool"
)

const (
	defaultWorkers    = 10
	defaultReadLimit  = 64 * 1024
	defaultReadWindow = 30 * time.Second
)

// Server accepts order-entry connections and dispatches each newline of
// JSON it reads to the engine, writing back a single JSON response line per
// request. Grounded on the teacher's internal/net server: a bounded worker
// pool pulls accepted connections off a channel, each worker reads what it
// can and re-queues the connection for its next read, so a slow client never
// blocks the accept loop.
type Server struct {
	address string
	port    int
	eng     *engine.Engine
	pool    *workerpool.Pool
	cancel  context.CancelFunc

	mu       sync.Mutex
	sessions map[string]net.Conn
}

func New(address string, port int, eng *engine.Engine) *Server {
	return &Server{
		address:  address,
		port:     port,
		eng:      eng,
		pool:     workerpool.New(defaultWorkers),
		sessions: make(map[string]net.Conn),
	}
}

func (s *Server) Shutdown() {
	log.Info().Msg("tcp server shutting down")
	if s.cancel != nil {
		s.cancel()
	}
}

// Run accepts connections until ctx is canceled. It blocks.
func (s *Server) Run(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)
	defer s.Shutdown()

	t, ctx := tomb.WithContext(ctx)

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", fmt.Sprintf("%s:%d", s.address, s.port))
	if err != nil {
		return fmt.Errorf("tcp: listen: %w", err)
	}
	defer listener.Close()

	// The listen context does not close the listener; close it on cancel so
	// a blocked Accept returns.
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	t.Go(func() error {
		s.pool.Run(t, s.handleConnection)
		return nil
	})

	log.Info().Str("address", listener.Addr().String()).Msg("tcp order-entry server listening")

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			conn, err := listener.Accept()
			if err != nil {
				select {
				case <-ctx.Done():
					return nil
				default:
				}
				log.Error().Err(err).Msg("accept failed")
				continue
			}
			s.addSession(conn)
			s.pool.AddTask(conn)
		}
	}
}

func (s *Server) addSession(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[conn.RemoteAddr().String()] = conn
}

func (s *Server) dropSession(addr string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, addr)
}

// handleConnection reads and answers exactly one request line, then
// re-queues the connection for its next read. A read that returns no data,
// or a failed write of the response, drops the session; a line that does not
// decode gets an error response and the connection is re-queued. None of
// these kills the worker pool.
func (s *Server) handleConnection(t *tomb.Tomb, task any) error {
	conn, ok := task.(net.Conn)
	if !ok {
		return fmt.Errorf("tcp: unexpected task type %T", task)
	}

	addr := conn.RemoteAddr().String()
	_ = conn.SetReadDeadline(time.Now().Add(defaultReadWindow))

	reader := bufio.NewReaderSize(conn, defaultReadLimit)
	line, err := reader.ReadBytes('\n')
	if err != nil {
		if len(line) == 0 {
			s.dropSession(addr)
			conn.Close()
			return nil
		}
	}

	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		s.respond(conn, Response{Type: ResponseError, Error: "invalid request: " + err.Error()})
		s.pool.AddTask(conn)
		return nil
	}

	resp := s.dispatch(req)
	if err := s.respond(conn, resp); err != nil {
		s.dropSession(addr)
		conn.Close()
		return nil
	}

	s.pool.AddTask(conn)
	return nil
}

func (s *Server) respond(conn net.Conn, resp Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = conn.Write(data)
	return err
}

func (s *Server) dispatch(req Request) Response {
	switch req.Type {
	case RequestSubmit:
		return s.dispatchSubmit(req)
	case RequestCancel:
		return s.dispatchCancel(req)
	case RequestSnapshot:
		return s.dispatchSnapshot(req)
	default:
		return Response{Type: ResponseError, Error: fmt.Sprintf("unknown request type %q", req.Type)}
	}
}

func (s *Server) dispatchSubmit(req Request) Response {
	submitReq, err := parseSubmitRequest(req)
	if err != nil {
		return Response{Type: ResponseError, Error: err.Error()}
	}

	result, err := s.eng.Submit(submitReq)
	if err != nil {
		log.Error().Err(err).Str("symbol", req.Symbol).Msg("submit rejected")
		return Response{Type: ResponseError, Error: err.Error()}
	}

	return Response{Type: ResponseAck, OrderID: result.OrderID.String(), Warnings: result.Warnings}
}

func (s *Server) dispatchCancel(req Request) Response {
	id, err := parseOrderID(req.OrderID)
	if err != nil {
		return Response{Type: ResponseError, Error: err.Error()}
	}

	canceled, err := s.eng.Cancel(domain.Symbol(req.Symbol), id)
	if err != nil {
		return Response{Type: ResponseError, Error: err.Error()}
	}
	if !canceled {
		return Response{Type: ResponseError, Error: "order not found"}
	}
	return Response{Type: ResponseAck, OrderID: req.OrderID}
}

func (s *Server) dispatchSnapshot(req Request) Response {
	depth := req.Depth
	if depth <= 0 {
		depth = 10
	}
	view, err := s.eng.Snapshot(domain.Symbol(req.Symbol), depth)
	if err != nil {
		return Response{Type: ResponseError, Error: err.Error()}
	}
	return Response{
		Type: ResponseSnapshot,
		Bids: toDepthLevels(view.Bids),
		Asks: toDepthLevels(view.Asks),
	}
}

func toDepthLevels(in []book.LevelView) []DepthLevel {
	out := make([]DepthLevel, 0, len(in))
	for _, lvl := range in {
		out = append(out, DepthLevel{Price: lvl.Price.String(), Quantity: lvl.Quantity.String()})
	}
	return out
}

func parseOrderID(s string) (domain.OrderID, error) {
	id, err := domain.ParseOrderID(s)
	if err != nil {
		return domain.OrderID{}, fmt.Errorf("order_id: %w", err)
	}
	return id, nil
}

func parseSubmitRequest(req Request) (engine.SubmitRequest, error) {
	side, err := domain.ParseSide(req.Side)
	if err != nil {
		return engine.SubmitRequest{}, err
	}
	orderType, err := domain.ParseOrderType(req.OrderType)
	if err != nil {
		return engine.SubmitRequest{}, err
	}
	qty, err := money.ParseQuantity(req.Quantity)
	if err != nil {
		return engine.SubmitRequest{}, fmt.Errorf("quantity: %w", err)
	}

	var price, stopPrice *money.Price
	if req.Price != nil {
		p, err := money.ParsePrice(*req.Price)
		if err != nil {
			return engine.SubmitRequest{}, fmt.Errorf("price: %w", err)
		}
		price = &p
	}
	if req.StopPrice != nil {
		p, err := money.ParsePrice(*req.StopPrice)
		if err != nil {
			return engine.SubmitRequest{}, fmt.Errorf("stop_price: %w", err)
		}
		stopPrice = &p
	}

	return engine.SubmitRequest{
		Symbol:    domain.Symbol(req.Symbol),
		Side:      side,
		Type:      orderType,
		Quantity:  qty,
		Price:     price,
		StopPrice: stopPrice,
		Owner:     req.Owner,
	}, nil
}
