package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/tencent-go/apix/api"
	"github.com/tencent-go/apix/env"
	"github.com/tencent-go/apix/errx"
	"github.com/tencent-go/apix/logx"
	"github.com/tencent-go/apix/pathx"
	"github.com/tencent-go/apix/shutdown"
)

// Config carries the server settings read from the environment.
type Config struct {
	Address  string       `env:"API_ADDRESS" default:":8080" description:"listen address"`
	Debug    bool         `env:"API_DEBUG" default:"false"`
	LogLevel env.LogLevel `env:"LOG_LEVEL" default:"info"`
	PodName  string       `env:"POD_NAME" default:"pod" description:"seed for the ID node"`
}

var configReader = env.NewReaderBuilder[Config]().Build()

// Server adapts an Interface to net/http. Routes are compiled into a
// per-segment trie once at construction, so conflicting paths surface
// as a panic at startup rather than a shadowed route in production.
type Server struct {
	iface           *Interface
	trie            *trieNode
	notFound        http.HandlerFunc
	shutdownTimeout time.Duration
	log             *logrus.Entry
}

type trieNode struct {
	paramKey string
	route    *route
	children map[string]*trieNode
}

// route is one compiled path: every method mounted on it plus the
// ordered params used to convert captured segments.
type route struct {
	path    pathx.UrlPath
	params  []pathx.PathParam
	methods api.MethodMap
}

func NewServer(iface *Interface) *Server {
	s := &Server{
		iface:           iface,
		trie:            &trieNode{},
		shutdownTimeout: 10 * time.Second,
		log:             logrus.WithField("component", "server"),
	}
	for _, collated := range iface.CollatedRoutes() {
		s.insert(collated)
	}
	return s
}

// WithNotFound replaces the default 404 handler.
func (s *Server) WithNotFound(handler http.HandlerFunc) *Server {
	s.notFound = handler
	return s
}

func (s *Server) WithShutdownTimeout(timeout time.Duration) *Server {
	s.shutdownTimeout = timeout
	return s
}

func (s *Server) insert(collated api.CollatedOpPath) {
	current := s.trie
	for _, node := range collated.Path.Nodes() {
		key := node.Literal
		paramKey := ""
		if node.IsParam() {
			key = "$"
			paramKey = node.Param.Name
		} else if key == "" {
			continue
		}
		if current.children == nil {
			current.children = make(map[string]*trieNode)
		}
		if current.children[key] == nil {
			current.children[key] = &trieNode{paramKey: paramKey}
		} else if current.children[key].paramKey != paramKey {
			panic(errx.Newf("path '%s' parameter conflict: original '%s' conflicts with new '%s'",
				collated.Path.String(), current.children[key].paramKey, paramKey))
		}
		current = current.children[key]
	}
	if current.route != nil {
		panic(errx.Newf("path '%s' conflict definition", collated.Path.String()))
	}
	current.route = &route{
		path:    collated.Path,
		params:  collated.Path.PathParams(),
		methods: collated.Methods,
	}
}

// match walks the trie segment by segment, exact children before
// parameter children, capturing the raw value of every parameter
// segment in path order.
func (s *Server) match(path string) (*route, []string, bool) {
	current := s.trie
	var captured []string
	for _, segment := range strings.Split(path, "/") {
		if segment == "" {
			continue
		}
		if exact, ok := current.children[segment]; ok {
			current = exact
			continue
		}
		if param, ok := current.children["$"]; ok {
			current = param
			captured = append(captured, segment)
			continue
		}
		return nil, nil, false
	}
	if current.route == nil {
		return nil, nil, false
	}
	return current.route, captured, true
}

func (s *Server) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	matched, captured, ok := s.match(req.URL.Path)
	if !ok {
		s.handleNotFound(w, req)
		return
	}

	r := api.NewRequest(req)
	for idx, param := range matched.params {
		value, err := param.ParseValue(captured[idx])
		if err != nil {
			// A segment that does not convert is as good as no route.
			s.handleNotFound(w, req)
			return
		}
		r.PathArgs[param.Name] = value
	}

	op, ok := matched.methods[api.Method(req.Method)]
	if !ok {
		resp := api.ResponseFromStatus(http.StatusMethodNotAllowed).
			SetHeader("Allow", joinMethods(matched.methods.Sorted(), ","))
		s.write(w, resp)
		return
	}

	s.write(w, s.iface.Dispatch(op, r))
}

func (s *Server) handleNotFound(w http.ResponseWriter, req *http.Request) {
	if s.notFound != nil {
		s.notFound(w, req)
		return
	}
	s.log.WithField("endpoint", req.Method+" "+req.URL.Path).Warn("route not found")
	s.write(w, api.ResponseFromStatus(http.StatusNotFound))
}

func (s *Server) write(w http.ResponseWriter, resp *api.HttpResponse) {
	for key, values := range resp.Headers {
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	w.WriteHeader(resp.Status)
	switch body := resp.Body.(type) {
	case nil:
	case []byte:
		_, _ = w.Write(body)
	case string:
		_, _ = w.Write([]byte(body))
	default:
		// Dispatch encodes structured bodies before they get here.
		s.log.WithField("type", fmt.Sprintf("%T", body)).Error("unencoded response body")
	}
}

func (s *Server) Run(addr string) error {
	return s.serve(&http.Server{
		Addr:    addr,
		Handler: s,
	})
}

// RunH2C serves HTTP/2 over cleartext for deployments behind a proxy
// that terminates TLS.
func (s *Server) RunH2C(addr string) error {
	return s.serve(&http.Server{
		Addr:    addr,
		Handler: h2c.NewHandler(s, &http2.Server{}),
	})
}

// RunFromEnv reads Config, applies the log settings and ID node seed
// and serves on the configured address.
func (s *Server) RunFromEnv() error {
	cfg := configReader.Read()
	logx.Setup(string(cfg.LogLevel))
	api.SetIDNodeByString(cfg.PodName)
	s.iface.WithDebug(cfg.Debug)
	return s.Run(cfg.Address)
}

// serve blocks until the listener fails or a termination signal
// arrives. The drain is registered with the shutdown package so the
// server unwinds alongside every other registered resource.
func (s *Server) serve(httpServer *http.Server) error {
	shutdown.SetTimeout(s.shutdownTimeout)
	shutdown.OnShutdown(func(ctx context.Context) error {
		return httpServer.Shutdown(ctx)
	}, true)

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	done := make(chan struct{})
	go func() {
		shutdown.Wait()
		close(done)
	}()

	select {
	case err := <-errCh:
		return err
	case <-done:
		return nil
	}
}
