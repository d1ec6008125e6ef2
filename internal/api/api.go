// Copyright 2020-2021 The OS-NVR Authors.
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation; version 2.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// Package api is a thin reference HTTP/WebSocket binding of the
// transport-agnostic project-submission API a trajectory core exposes.
// It is intentionally minimal: HTTP/WebSocket transport is an external
// collaborator out of scope for the core itself, so this package
// exists only to give the core handles callers can reach; it is not a
// full auth/persistence layer the way pkg/web is for a monitor
// manager.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"motioncore/pkg/clip"
	"motioncore/pkg/core"
	"motioncore/pkg/log"
	"motioncore/pkg/playback"
	"motioncore/pkg/source"
)

// projectDoc is the wire shape for set_project's request body.
type projectDoc struct {
	Sources map[string]source.Source `json:"sources"`
	Clips   []clip.Clip              `json:"clips"`
}

// SetProject handles set_project(project): atomic replace, 204 on
// success, 400 on invariant violation.
func SetProject(c *core.Core) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "invalid request method", http.StatusMethodNotAllowed)
			return
		}

		var doc projectDoc
		if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
			http.Error(w, "could not decode project: "+err.Error(), http.StatusBadRequest)
			return
		}

		err := c.SetProject(core.Project{Sources: doc.Sources, Clips: doc.Clips})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	})
}

// EvalAt handles eval_at_request(t_ms) -> pose[24].
func EvalAt(c *core.Core) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "invalid request method", http.StatusMethodNotAllowed)
			return
		}

		tMs, err := strconv.ParseFloat(r.URL.Query().Get("t_ms"), 64)
		if err != nil {
			http.Error(w, "invalid t_ms", http.StatusBadRequest)
			return
		}

		p := c.EvalAt(tMs)
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(p); err != nil {
			http.Error(w, "could not encode pose", http.StatusInternalServerError)
		}
	})
}

// PoseStream handles eval_range_request(t0_ms, t1_ms, step_ms) ->
// pose_stream over a WebSocket: one JSON-encoded pose per message, in
// order, matching the Logs websocket handler's shape in pkg/web.
func PoseStream(c *core.Core, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		t0, errT0 := strconv.ParseFloat(q.Get("t0_ms"), 64)
		t1, errT1 := strconv.ParseFloat(q.Get("t1_ms"), 64)
		stepMs, errStep := strconv.ParseFloat(q.Get("step_ms"), 64)
		if errT0 != nil || errT1 != nil || errStep != nil {
			http.Error(w, "invalid t0_ms/t1_ms/step_ms", http.StatusBadRequest)
			return
		}

		poses, err := c.EvalRange(t0, t1, stepMs)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		upgrader := websocket.Upgrader{}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer conn.Close()

		for _, p := range poses {
			if err := conn.WriteJSON(p); err != nil {
				if logger != nil {
					logger.Warn().Src("api").Msgf("pose_stream: could not write: %v", err)
				}
				return
			}
		}
	})
}

// Start handles playback control: start(t0_ms).
func Start(s *playback.Scheduler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t0, err := strconv.ParseFloat(r.URL.Query().Get("t0_ms"), 64)
		if err != nil {
			http.Error(w, "invalid t0_ms", http.StatusBadRequest)
			return
		}
		if err := s.StartPlay(t0); err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

// Stop handles playback control: stop().
func Stop(s *playback.Scheduler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.StopPlay()
		w.WriteHeader(http.StatusNoContent)
	})
}

// Seek handles playback control: seek(marker_ms).
func Seek(s *playback.Scheduler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		marker, err := strconv.ParseFloat(r.URL.Query().Get("marker_ms"), 64)
		if err != nil {
			http.Error(w, "invalid marker_ms", http.StatusBadRequest)
			return
		}
		if err := s.Seek(marker); err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

// State handles state(): {playing, marker_ms, teleop_active, connected, ready}.
func State(s *playback.Scheduler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(s.State()); err != nil {
			http.Error(w, "could not encode state", http.StatusInternalServerError)
		}
	})
}
