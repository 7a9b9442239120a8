package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

// Smoke check against a running server: log two users in, subscribe both to
// /ws, create a task over HTTP and verify each observer receives both a
// task-changed and a logs-changed event.
func main() {
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}
	base := fmt.Sprintf("http://127.0.0.1:%s", port)

	tokenA := login(base, "smokeA", "smokepass")
	tokenB := login(base, "smokeB", "smokepass")

	dialer := websocket.DefaultDialer

	connA, _, err := dialer.Dial(fmt.Sprintf("ws://127.0.0.1:%s/ws?token=%s", port, tokenA), nil)
	if err != nil {
		log.Fatalf("dial A: %v", err)
	}
	defer connA.Close()

	connB, _, err := dialer.Dial(fmt.Sprintf("ws://127.0.0.1:%s/ws?token=%s", port, tokenB), nil)
	if err != nil {
		log.Fatalf("dial B: %v", err)
	}
	defer connB.Close()

	// unique title so reruns don't trip the duplicate check
	title := fmt.Sprintf("smoke task %d", time.Now().UnixNano())
	body, _ := json.Marshal(map[string]string{"title": title, "description": "ws smoke"})
	req, _ := http.NewRequest("POST", base+"/api/v1/tasks", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tokenA)
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("create task: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusCreated {
		log.Fatalf("create task: expected 201 got %d", res.StatusCode)
	}

	expectEvents(connA, "A")
	expectEvents(connB, "B")

	log.Println("smoke test finished")
}

func login(base, username, password string) string {
	creds, _ := json.Marshal(map[string]string{"username": username, "password": password})

	// register is idempotent for the smoke users: duplicate is fine
	res, err := http.Post(base+"/api/v1/auth/register", "application/json", bytes.NewReader(creds))
	if err != nil {
		log.Fatalf("register %s: %v", username, err)
	}
	res.Body.Close()

	res, err = http.Post(base+"/api/v1/auth/login", "application/json", bytes.NewReader(creds))
	if err != nil {
		log.Fatalf("login %s: %v", username, err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		log.Fatalf("login %s: expected 200 got %d", username, res.StatusCode)
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		log.Fatalf("decode login response: %v", err)
	}
	return out.Token
}

func expectEvents(conn *websocket.Conn, name string) {
	seen := map[string]bool{}
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) && (!seen["task-changed"] || !seen["logs-changed"]) {
		conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			continue
		}
		var ev struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(msg, &ev); err != nil {
			continue
		}
		seen[ev.Type] = true
		log.Printf("%s got: %s", name, string(msg))
	}
	if !seen["task-changed"] || !seen["logs-changed"] {
		log.Fatalf("%s missed events: task-changed=%v logs-changed=%v", name, seen["task-changed"], seen["logs-changed"])
	}
}
