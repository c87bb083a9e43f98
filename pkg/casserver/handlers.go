package casserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/dvs-io/dvs/pkg/dvserrors"
	"github.com/dvs-io/dvs/pkg/hashengine"
	"github.com/dvs-io/dvs/pkg/oid"
)

// errorBody is the JSON shape of every non-2xx response, carrying the
// taxonomy kind as a plain string per §6's wire protocol.
type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, kind string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: kind})
}

// objectsHandler serves HEAD/GET/PUT/DELETE on /objects/{algo}/{hex},
// grounded on dvs-server/src/api.rs's object endpoint and the client's
// httpcas.objectURL for the path shape.
func (s *Server) objectsHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := parseObjectPath(r.URL.Path)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_target")
		return
	}

	switch r.Method {
	case http.MethodHead:
		s.handleHead(w, r, id)
	case http.MethodGet:
		s.handleGet(w, r, id)
	case http.MethodPut:
		s.handlePut(w, r, id)
	case http.MethodDelete:
		s.handleDelete(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "invalid_target")
	}
}

func (s *Server) handleHead(w http.ResponseWriter, r *http.Request, id oid.Oid) {
	if _, status := s.auth.authorize(r, "read"); status != 0 {
		writeError(w, status, authKind(status))
		return
	}
	has, err := s.store.Has(r.Context(), id)
	if err != nil || !has {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request, id oid.Oid) {
	if _, status := s.auth.authorize(r, "read"); status != 0 {
		writeError(w, status, authKind(status))
		return
	}
	has, err := s.store.Has(r.Context(), id)
	if err != nil || !has {
		writeError(w, http.StatusNotFound, "object_missing")
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	if err := s.store.Get(r.Context(), id, w); err != nil {
		s.logger.Error("get failed", zap.String("oid", id.String()), zap.Error(err))
	}
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request, id oid.Oid) {
	if _, status := s.auth.authorize(r, "write"); status != 0 {
		writeError(w, status, authKind(status))
		return
	}

	maxSize := s.config.MaxUploadSize
	if maxSize <= 0 {
		maxSize = DefaultMaxUploadSize
	}
	if r.ContentLength > maxSize {
		writeError(w, http.StatusRequestEntityTooLarge, "too_large")
		return
	}

	// Hash into a scratch file first and only hand the store a reader over
	// verified bytes, so a mismatched PUT never reaches committed storage
	// (§4.11, §8 Testable Property 8) — the same verify-then-commit
	// discipline as pkg/ops/util.go's storeGet, staged before Put rather
	// than after Get.
	scratch, err := os.CreateTemp("", "dvs-put-*")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "io_error")
		return
	}
	scratchPath := scratch.Name()
	defer os.Remove(scratchPath)

	tee, err := hashengine.NewTeeHashWriter(scratch, id.Algo)
	if err != nil {
		scratch.Close()
		writeError(w, http.StatusBadRequest, "hash_error")
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxSize)
	_, copyErr := io.Copy(tee, body)
	closeErr := scratch.Close()
	if copyErr != nil {
		if strings.Contains(copyErr.Error(), "http: request body too large") {
			writeError(w, http.StatusRequestEntityTooLarge, "too_large")
			return
		}
		writeError(w, http.StatusInternalServerError, "io_error")
		return
	}
	if closeErr != nil {
		writeError(w, http.StatusInternalServerError, "io_error")
		return
	}

	if tee.Sum() != id.Hex {
		writeError(w, http.StatusBadRequest, "integrity_error")
		return
	}

	existed, err := s.store.Has(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "io_error")
		return
	}

	verified, err := os.Open(scratchPath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "io_error")
		return
	}
	defer verified.Close()

	if err := s.store.Put(r.Context(), id, verified); err != nil {
		writeError(w, http.StatusInternalServerError, "io_error")
		return
	}

	s.events.broadcastPut(id)
	if existed {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusCreated)
	}
}

// deleter is implemented by stores that support object removal; only
// localfs.Store does, since content immutability means DELETE is an
// administrative escape hatch rather than a normal operation.
type deleter interface {
	Delete(ctx context.Context, id oid.Oid) error
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request, id oid.Oid) {
	if _, status := s.auth.authorize(r, "delete"); status != 0 {
		writeError(w, status, authKind(status))
		return
	}
	d, ok := s.store.(deleter)
	if !ok {
		writeError(w, http.StatusMethodNotAllowed, "invalid_target")
		return
	}
	if err := d.Delete(r.Context(), id); err != nil {
		if dvserrors.KindOf(err) == dvserrors.KindObjectMissing {
			writeError(w, http.StatusNotFound, "object_missing")
			return
		}
		writeError(w, http.StatusInternalServerError, "io_error")
		return
	}
	s.events.broadcastDelete(id)
	w.WriteHeader(http.StatusNoContent)
}

func authKind(status int) string {
	if status == http.StatusForbidden {
		return "forbidden"
	}
	return "unauthorized"
}

// parseObjectPath extracts the oid from "/objects/{algo}/{hex}".
func parseObjectPath(path string) (oid.Oid, bool) {
	const prefix = "/objects/"
	if !strings.HasPrefix(path, prefix) {
		return oid.Oid{}, false
	}
	rest := strings.TrimPrefix(path, prefix)
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[1] == "" {
		return oid.Oid{}, false
	}
	algo, ok := oid.ParseAlgo(parts[0])
	if !ok || len(parts[1]) != algo.HexLen() {
		return oid.Oid{}, false
	}
	return oid.New(algo, parts[1]), true
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"version":      Version,
		"uptime":       time.Since(s.startedAt).String(),
		"object_count": atomic.LoadInt64(&s.requestCount),
		"storage_type": s.store.Type(),
	})
}
