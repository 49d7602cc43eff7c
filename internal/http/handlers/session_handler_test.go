package handlers

import (
	"net/http"
	"strings"
	"testing"
)

func TestSessions_Lifecycle(t *testing.T) {
	e := newEnv(t)
	tok := e.signup(t, "asha")

	var created CreateSessionResponse
	w := e.do(t, http.MethodPost, "/sessions", tok, map[string]string{"session_name": " Weeknight "})
	decode(t, w, &created)
	if w.Code != http.StatusCreated || created.SessionID == "" || created.SessionName != "Weeknight" {
		t.Fatalf("create = %d %+v", w.Code, created)
	}

	var unnamed CreateSessionResponse
	w = e.do(t, http.MethodPost, "/sessions", tok, nil)
	decode(t, w, &unnamed)
	if w.Code != http.StatusCreated || !strings.HasPrefix(unnamed.SessionName, "Session ") {
		t.Fatalf("unnamed = %d %+v", w.Code, unnamed)
	}
	expectError(t, e.do(t, http.MethodPost, "/sessions", tok, `{"session_name":`), http.StatusBadRequest, ErrCodeBadRequest)

	seedChats(t, e, tok, [2]string{"hello", created.SessionID}, [2]string{"again", created.SessionID})

	var list SessionsResponse
	decode(t, e.do(t, http.MethodGet, "/sessions", tok, nil), &list)
	if list.TotalSessions != 2 || list.Sessions[0].SessionID != created.SessionID || list.Sessions[0].MessageCount != 2 {
		t.Fatalf("sessions = %+v", list)
	}

	var hist HistoryResponse
	w = e.do(t, http.MethodGet, "/sessions/"+created.SessionID+"/history", tok, nil)
	decode(t, w, &hist)
	if hist.SessionID != created.SessionID || hist.TotalMessages != 2 || w.Header().Get("ETag") == "" {
		t.Fatalf("session history = %+v", hist)
	}

	var cleared ClearResponse
	decode(t, e.do(t, http.MethodDelete, "/sessions/"+created.SessionID+"/history", tok, nil), &cleared)
	if cleared.Deleted != 2 || cleared.SessionID != created.SessionID {
		t.Fatalf("clear session = %+v", cleared)
	}
	// Metadata survives a history clear.
	decode(t, e.do(t, http.MethodGet, "/sessions", tok, nil), &list)
	if list.TotalSessions != 2 {
		t.Fatalf("sessions after clear = %+v", list)
	}

	var deleted ClearResponse
	w = e.do(t, http.MethodDelete, "/sessions/"+created.SessionID, tok, nil)
	decode(t, w, &deleted)
	if w.Code != http.StatusOK || deleted.Message != "Session deleted successfully" {
		t.Fatalf("delete = %d %+v", w.Code, deleted)
	}
	w = e.do(t, http.MethodDelete, "/sessions/never-existed", tok, nil)
	deleted = ClearResponse{}
	decode(t, w, &deleted)
	if w.Code != http.StatusOK || deleted.Deleted != 0 || deleted.SessionID != "never-existed" {
		t.Fatalf("delete unknown = %d %+v", w.Code, deleted)
	}
}

func TestSessions_StoreFailure(t *testing.T) {
	e := newEnv(t)
	tok := e.signup(t, "asha")
	captureLogs(t)
	_ = e.store.Close()

	expectError(t, e.do(t, http.MethodGet, "/sessions", tok, nil), http.StatusInternalServerError, ErrCodeSessionFailed)
	expectError(t, e.do(t, http.MethodPost, "/sessions", tok, nil), http.StatusInternalServerError, ErrCodeSessionFailed)
	expectError(t, e.do(t, http.MethodDelete, "/sessions/x", tok, nil), http.StatusInternalServerError, ErrCodeSessionFailed)
}
