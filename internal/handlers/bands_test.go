package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"powerband"
	"powerband/internal/service"
)

func TestBandHandlers_ListAndCreate(t *testing.T) {
	pool := "stratum+tcp://pool.example:3333"
	mb := &mockBands{
		bands:   []powerband.PriceBand{{ID: 1, SortOrder: 1}},
		created: powerband.PriceBand{ID: 9, SortOrder: 3, TargetPool: &pool},
	}
	r := newTestRouter(&service.Service{Bands: mb})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/bands/", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list status=%d, body=%s", w.Code, w.Body.String())
	}
	var listResp struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &listResp); err != nil || listResp.Count != 1 {
		t.Fatalf("unexpected list response: %s (err=%v)", w.Body.String(), err)
	}

	body := bytes.NewBufferString(`{"sort_order":3,"min_price":10,"max_price":20,"target_pool":"` + pool + `","mode_targets":{"antminer":"standard"}}`)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/bands/", body)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("create status=%d, body=%s", w.Code, w.Body.String())
	}
	if mb.lastCreate.SortOrder != 3 {
		t.Fatalf("wrong create params: %+v", mb.lastCreate)
	}
	if mb.lastCreate.MinPrice == nil || *mb.lastCreate.MinPrice != 10 {
		t.Fatalf("min_price not passed through: %+v", mb.lastCreate)
	}
	if mb.lastCreate.ModeTargets["antminer"] != "standard" {
		t.Fatalf("mode_targets not passed through: %+v", mb.lastCreate)
	}
}

func TestBandHandlers_CreateValidationFailure(t *testing.T) {
	mb := &mockBands{createErr: errors.New("sort_order already in use")}
	r := newTestRouter(&service.Service{Bands: mb})

	body := bytes.NewBufferString(`{"sort_order":3}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bands/", body)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for rejected band, got %d", w.Code)
	}
}

func TestBandHandlers_UpdateAndDelete(t *testing.T) {
	mb := &mockBands{updated: powerband.PriceBand{ID: 4, SortOrder: 4}}
	r := newTestRouter(&service.Service{Bands: mb})

	body := bytes.NewBufferString(`{"sort_order":4,"min_price":20,"max_price":30}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/bands/4", body)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("update status=%d, body=%s", w.Code, w.Body.String())
	}
	if mb.lastUpdateID != 4 {
		t.Fatalf("wrong update id: %d", mb.lastUpdateID)
	}

	// non-numeric id → 400 before the service is touched
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPut, "/api/v1/bands/abc", body)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, "/api/v1/bands/4", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("delete status=%d, body=%s", w.Code, w.Body.String())
	}
	if mb.lastDeleteID != 4 {
		t.Fatalf("wrong delete id: %d", mb.lastDeleteID)
	}
}

func TestBandHandlers_Reset(t *testing.T) {
	mb := &mockBands{bands: make([]powerband.PriceBand, 5)}
	r := newTestRouter(&service.Service{Bands: mb})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bands/reset", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("reset status=%d, body=%s", w.Code, w.Body.String())
	}
	if mb.resetCalls != 1 {
		t.Fatalf("expected one Reset call, got %d", mb.resetCalls)
	}
}
