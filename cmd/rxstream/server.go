// WebSocket and metrics endpoints for rxstream
// 通过WebSocket把热序列和冷序列推送给客户端，并暴露Prometheus指标
package main

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xinjiayu/rxcore"
)

const (
	writeTimeout  = 5 * time.Second
	outboxSize    = 64
	maxColdCount  = 10000
	defaultCount  = 10
	kindNext      = "next"
	kindError     = "error"
	kindCompleted = "completed"
)

// Message 推送给WebSocket客户端的一条通知
type Message[T any] struct {
	Kind  string `json:"kind"`
	Value *T     `json:"value,omitempty"`
	Error string `json:"error,omitempty"`
}

func toMessage[T any](n rxcore.Notification[T]) Message[T] {
	switch n.Kind {
	case rxcore.KindNext:
		value := n.Value
		return Message[T]{Kind: kindNext, Value: &value}
	case rxcore.KindError:
		return Message[T]{Kind: kindError, Error: n.Err.Error()}
	default:
		return Message[T]{Kind: kindCompleted}
	}
}

// Server 提供/hot、/cold和/metrics端点
type Server struct {
	hot          rxcore.Observable[Sample]
	scheduler    rxcore.Scheduler
	metrics      *rxcore.Metrics
	gatherer     prometheus.Gatherer
	coldInterval time.Duration
	logger       *slog.Logger

	upgrader    websocket.Upgrader
	connections prometheus.Gauge

	// ctx在Close时取消，断开所有WebSocket连接
	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer 创建服务；registry用于/metrics，且会注册连接数指标
func NewServer(hot rxcore.Observable[Sample], scheduler rxcore.Scheduler, metrics *rxcore.Metrics,
	registry *prometheus.Registry, coldInterval time.Duration, logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	connections := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rxstream_websocket_connections",
		Help: "Current number of WebSocket connections.",
	})
	if err := registry.Register(connections); err != nil {
		logger.Warn("rxstream: register connection gauge", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		ctx:          ctx,
		cancel:       cancel,
		hot:          hot,
		scheduler:    scheduler,
		metrics:      metrics,
		gatherer:     registry,
		coldInterval: coldInterval,
		logger:       logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool {
				return true
			},
		},
		connections: connections,
	}
}

// Close 断开所有WebSocket连接并释放它们的订阅
//
// http.Server.Shutdown不会等待被接管的WebSocket连接，需要单独关闭。
func (s *Server) Close() {
	s.cancel()
}

// Handler 返回路由
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /hot", s.serveHot)
	mux.HandleFunc("GET /cold", s.serveCold)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return mux
}

func (s *Server) serveHot(w http.ResponseWriter, r *http.Request) {
	serve(s, w, r, s.hot)
}

// serveCold 每个连接得到一次独立的1..count计数
func (s *Server) serveCold(w http.ResponseWriter, r *http.Request) {
	count := defaultCount
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > maxColdCount {
			http.Error(w, "count must be an integer between 0 and 10000", http.StatusBadRequest)
			return
		}
		count = n
	}

	serve(s, w, r, s.counter(count))
}

func (s *Server) counter(count int) *rxcore.Cold[int] {
	interval := s.coldInterval
	return rxcore.NewCold[int](func(ctx context.Context, sink rxcore.Observer[int]) {
		for i := 1; i <= count; i++ {
			if i > 1 && interval > 0 {
				select {
				case <-ctx.Done():
					return
				case <-time.After(interval):
				}
			}
			if ctx.Err() != nil {
				return
			}
			sink.OnNext(i)
		}
		sink.OnCompleted()
	}, s.scheduler,
		rxcore.WithName("cold"),
		rxcore.WithLogger(s.logger),
		rxcore.WithMetrics(s.metrics),
	)
}

// serve 升级连接，订阅source并把通知逐条写给客户端，终止通知之后关闭连接
func serve[T any](s *Server, w http.ResponseWriter, r *http.Request, source rxcore.Observable[T]) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("rxstream: websocket upgrade failed", "path", r.URL.Path, "error", err)
		return
	}
	defer conn.Close()

	s.connections.Inc()
	defer s.connections.Dec()

	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	// 读循环只用于发现客户端断开
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	outbox := make(chan Message[T], outboxSize)
	send := func(n rxcore.Notification[T]) {
		select {
		case outbox <- toMessage(n):
		case <-ctx.Done():
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer cancel()
		if err := writeLoop(ctx, conn, outbox); err != nil {
			s.logger.Debug("rxstream: write failed", "path", r.URL.Path, "error", err)
		}
	}()

	s.logger.Debug("rxstream: client connected", "path", r.URL.Path, "remote", r.RemoteAddr)

	// 热序列的重放在Subscribe内同步投递，写循环必须先启动
	subscription, err := source.Subscribe(rxcore.NewObserver(
		func(value T) { send(rxcore.NextNotification(value)) },
		func(err error) { send(rxcore.ErrorNotification[T](err)) },
		func() { send(rxcore.CompletedNotification[T]()) },
	))
	if err != nil {
		send(rxcore.ErrorNotification[T](err))
	} else {
		defer subscription.Dispose()
	}

	<-done
	s.logger.Debug("rxstream: client disconnected", "path", r.URL.Path, "remote", r.RemoteAddr)
}

// writeLoop 把outbox中的消息写给客户端，直到终止消息或ctx结束
func writeLoop[T any](ctx context.Context, conn *websocket.Conn, outbox <-chan Message[T]) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-outbox:
			if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				return err
			}
			if err := conn.WriteJSON(msg); err != nil {
				return err
			}
			if msg.Kind != kindNext {
				closing := websocket.FormatCloseMessage(websocket.CloseNormalClosure, msg.Kind)
				return conn.WriteControl(websocket.CloseMessage, closing, time.Now().Add(writeTimeout))
			}
		}
	}
}
