// SPDX-License-Identifier: Apache-2.0
package engine

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Server is a stub cofferd used for development and integration tests.
// It speaks the full front-end protocol against an in-memory repository
// store and simulates the engine's eventually-consistent connect/create:
// after a successful connect or create, Status keeps reporting
// Connected=false until ProvisionDelay has elapsed.
type Server struct {
	socketPath     string
	version        string
	provisionDelay time.Duration
	logger         *log.Logger

	mu      sync.Mutex
	repos   map[string]repoRecord
	readyAt time.Time
	current *RepositoryStatus
}

type repoRecord struct {
	password string
	algs     Algorithms
}

// ServerOptions configures a stub server
type ServerOptions struct {
	SocketPath     string
	Version        string        // reported by engine.version; defaults to MinEngineVersion
	ProvisionDelay time.Duration // delay before Status reports connected
	Logger         *log.Logger
}

// NewServer creates a stub engine server
func NewServer(opts ServerOptions) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	if opts.Version == "" {
		opts.Version = MinEngineVersion
	}
	return &Server{
		socketPath:     opts.SocketPath,
		version:        opts.Version,
		provisionDelay: opts.ProvisionDelay,
		logger:         opts.Logger,
		repos:          make(map[string]repoRecord),
	}
}

// Listen starts the server and accepts connections until ctx is cancelled
func (s *Server) Listen(ctx context.Context) error {
	// A stale socket from a previous run blocks the listener
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stale socket: %w", err)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.socketPath, err)
	}
	defer listener.Close()

	s.logger.Printf("stub engine listening on %s", s.socketPath)

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				s.logger.Println("server shutting down")
				return ctx.Err()
			}
			s.logger.Printf("failed to accept connection: %v", err)
			continue
		}
		go s.handleConnection(conn)
	}
}

// handleConnection serves newline-delimited JSON-RPC on a single connection
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)
	writer := bufio.NewWriter(conn)

	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if err != io.EOF {
				s.logger.Printf("error reading from connection: %v", err)
			}
			return
		}

		var req JSONRPCRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.sendResponse(writer, NewErrorResponse(nil, ErrCodeParseError, "", "Parse error"))
			continue
		}

		s.sendResponse(writer, s.handleRequest(&req))
	}
}

func (s *Server) handleRequest(req *JSONRPCRequest) *JSONRPCResponse {
	switch req.Method {
	case MethodVersion:
		return s.handleVersion(req)
	case MethodStatus:
		return s.handleStatus(req)
	case MethodConnect:
		return s.handleConnect(req)
	case MethodCreate:
		return s.handleCreate(req)
	case MethodDisconnect:
		return s.handleDisconnect(req)
	case MethodExists:
		return s.handleExists(req)
	default:
		return NewErrorResponse(req.ID, ErrCodeMethodNotFound, "", fmt.Sprintf("method not found: %s", req.Method))
	}
}

func (s *Server) handleVersion(req *JSONRPCRequest) *JSONRPCResponse {
	resp, err := NewResultResponse(req.ID, VersionResult{Version: s.version})
	if err != nil {
		return NewErrorResponse(req.ID, ErrCodeInternalError, "", "failed to build version response")
	}
	return resp
}

func (s *Server) handleStatus(req *JSONRPCRequest) *JSONRPCResponse {
	s.mu.Lock()
	status := RepositoryStatus{}
	if s.current != nil {
		status = *s.current
		status.Connected = !time.Now().Before(s.readyAt)
	}
	s.mu.Unlock()

	resp, err := NewResultResponse(req.ID, status)
	if err != nil {
		return NewErrorResponse(req.ID, ErrCodeInternalError, "", "failed to build status response")
	}
	return resp
}

func (s *Server) handleConnect(req *JSONRPCRequest) *JSONRPCResponse {
	var params ConnectParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return NewErrorResponse(req.ID, ErrCodeInvalidParams, "", "Invalid params")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		return NewErrorResponse(req.ID, ErrCodeRepository, CategoryAlreadyConnected, "already connected to a repository")
	}

	record, ok := s.repos[storageKey(params.Storage)]
	if !ok {
		return NewErrorResponse(req.ID, ErrCodeRepository, CategoryNotFound, "repository not found at storage location")
	}
	if record.password != params.Password {
		return NewErrorResponse(req.ID, ErrCodeRepository, CategoryInvalidPassword, "invalid repository password")
	}

	s.attach(params.Storage, record)
	return mustResult(req.ID, struct{}{})
}

func (s *Server) handleCreate(req *JSONRPCRequest) *JSONRPCResponse {
	var params CreateParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return NewErrorResponse(req.ID, ErrCodeInvalidParams, "", "Invalid params")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		return NewErrorResponse(req.ID, ErrCodeRepository, CategoryAlreadyConnected, "already connected to a repository")
	}

	key := storageKey(params.Storage)
	if _, ok := s.repos[key]; ok {
		return NewErrorResponse(req.ID, ErrCodeRepository, CategoryInternal, "repository already exists at storage location")
	}

	record := repoRecord{password: params.Password, algs: params.Algorithms}
	s.repos[key] = record
	s.attach(params.Storage, record)
	return mustResult(req.ID, struct{}{})
}

func (s *Server) handleDisconnect(req *JSONRPCRequest) *JSONRPCResponse {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
	return mustResult(req.ID, struct{}{})
}

func (s *Server) handleExists(req *JSONRPCRequest) *JSONRPCResponse {
	var params ExistsParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return NewErrorResponse(req.ID, ErrCodeInvalidParams, "", "Invalid params")
	}

	s.mu.Lock()
	_, ok := s.repos[storageKey(params.Storage)]
	s.mu.Unlock()

	return mustResult(req.ID, ExistsResult{Exists: ok})
}

// attach records the new connection; caller holds s.mu
func (s *Server) attach(storage StorageConfig, record repoRecord) {
	hostname, _ := os.Hostname()
	s.readyAt = time.Now().Add(s.provisionDelay)
	s.current = &RepositoryStatus{
		Connected:   true, // masked by readyAt in handleStatus
		StorageKind: storage.Kind,
		Hash:        record.algs.Hash,
		Encryption:  record.algs.Encryption,
		Splitter:    record.algs.Splitter,
		Username:    os.Getenv("USER"),
		Hostname:    hostname,
	}
}

// storageKey fingerprints a storage config so that equivalent targets map
// to the same stored repository
func storageKey(storage StorageConfig) string {
	keys := make([]string, 0, len(storage.Params))
	for k := range storage.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(storage.Kind)
	for _, k := range keys {
		b.WriteString("|")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(storage.Params[k])
	}
	return b.String()
}

func mustResult(id interface{}, result interface{}) *JSONRPCResponse {
	resp, err := NewResultResponse(id, result)
	if err != nil {
		return NewErrorResponse(id, ErrCodeInternalError, "", "failed to build response")
	}
	return resp
}

func (s *Server) sendResponse(writer *bufio.Writer, resp *JSONRPCResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Printf("failed to marshal response: %v", err)
		return
	}
	if _, err := writer.Write(append(data, '\n')); err != nil {
		s.logger.Printf("failed to write response: %v", err)
		return
	}
	if err := writer.Flush(); err != nil {
		s.logger.Printf("failed to flush response: %v", err)
	}
}
