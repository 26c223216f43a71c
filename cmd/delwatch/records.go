package main

import (
	"encoding/json"
	"net/http"
	"strings"

	"delwatch/internal/logger"
	"delwatch/internal/store"
)

// deleteRequest is the admin surface for delete operations. All deletes flow
// through the instrumented store so the monitoring pipeline observes them.
type deleteRequest struct {
	Filter store.Filter `json:"filter"`
	One    bool         `json:"one"`
}

type insertRequest struct {
	ID     string       `json:"id"`
	Record store.Record `json:"record"`
}

func registerRecordHandlers(mux *http.ServeMux, raw *store.RedisStore, instrumented store.Deleter) {
	mux.HandleFunc("/records", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			var req insertRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
				http.Error(w, "invalid insert request", http.StatusBadRequest)
				return
			}
			if err := raw.Insert(r.Context(), req.ID, req.Record); err != nil {
				logger.Errorf("Record insert failed: %v", err)
				http.Error(w, "insert failed", http.StatusInternalServerError)
				return
			}
			w.WriteHeader(http.StatusCreated)
		case http.MethodDelete:
			var req deleteRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "invalid delete request", http.StatusBadRequest)
				return
			}
			var res store.DeleteResult
			var err error
			if req.One {
				res, err = instrumented.DeleteOne(r.Context(), req.Filter)
			} else {
				res, err = instrumented.DeleteMany(r.Context(), req.Filter)
			}
			if err != nil {
				logger.Errorf("Record delete failed: %v", err)
				http.Error(w, "delete failed", http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(res)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/records/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		id := strings.TrimPrefix(r.URL.Path, "/records/")
		if id == "" {
			http.Error(w, "record id required", http.StatusBadRequest)
			return
		}

		rec, err := instrumented.FindByIDAndDelete(r.Context(), id)
		if err != nil {
			logger.Errorf("Record delete failed: %v", err)
			http.Error(w, "delete failed", http.StatusInternalServerError)
			return
		}
		if rec == nil {
			http.Error(w, "record not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(rec)
	})
}
