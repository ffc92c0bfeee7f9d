// ABOUTME: Minimal fake inference backend for local dev and E2E testing.
// ABOUTME: Usage: fake-model [-addr :8001] [-shape response] [-replies replies.toml] [-delay 0s]

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// replyTable holds the canned DAX replies, selectable by keyword in the
// latest user message. Overridable via a TOML file.
type replyTable struct {
	Var      string `toml:"var"`
	Optimize string `toml:"optimize"`
	Default  string `toml:"default"`
}

var defaultReplies = replyTable{
	Var: "Here's the DAX formula using VAR for better readability:\n\n```dax\nVAR TotalRevenue = SUM([Revenue])\nVAR TotalUnits = SUM([Units])\nRETURN\n    DIVIDE(TotalRevenue, TotalUnits)\n```\n\nThis approach stores intermediate calculations in variables, making the formula easier to read and maintain.",

	Optimize: "Here's an optimized version of the DAX formula:\n\n```dax\nCALCULATE(\n    DIVIDE(SUM([Revenue]), SUM([Units])),\n    REMOVEFILTERS()\n)\n```\n\nThis version uses CALCULATE with REMOVEFILTERS for better performance.",

	Default: "I understand you want to refine the DAX formula. Here's an improved version:\n\n```dax\nSUMX(\n    VALUES(Sales[ProductKey]),\n    DIVIDE([Revenue], [Units])\n)\n```\n\nThis uses SUMX for row-by-row calculation which can be more accurate for this type of division.",
}

type generateRequest struct {
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

func main() {
	addr := flag.String("addr", ":8001", "listen address")
	shape := flag.String("shape", "response", "reply shape: response, generated_text, output, or choices")
	repliesPath := flag.String("replies", "", "TOML file overriding the canned replies")
	delay := flag.Duration("delay", 0, "artificial latency before answering (for timeout testing)")
	flag.Parse()

	replies := defaultReplies
	if *repliesPath != "" {
		if _, err := toml.DecodeFile(*repliesPath, &replies); err != nil {
			log.Fatalf("loading replies from %s: %v", *repliesPath, err)
		}
	}

	http.HandleFunc("/generate", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		// The question is the latest user turn.
		var question string
		for i := len(req.Messages) - 1; i >= 0; i-- {
			if req.Messages[i].Role == "user" {
				question = req.Messages[i].Content
				break
			}
		}
		if question == "" {
			http.Error(w, "no user message found", http.StatusBadRequest)
			return
		}

		if *delay > 0 {
			time.Sleep(*delay)
		}

		content := replies.Default
		upper := strings.ToUpper(question)
		switch {
		case strings.Contains(upper, "VAR"):
			content = replies.Var
		case strings.Contains(upper, "OPTIMIZE"):
			content = replies.Optimize
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(payloadFor(*shape, content)); err != nil {
			log.Printf("encoding reply: %v", err)
		}
	})

	log.Printf("fake-model listening on %s (shape=%s)", *addr, *shape)
	if err := http.ListenAndServe(*addr, nil); err != nil {
		log.Fatal(err)
	}
}

// payloadFor wraps content in one of the reply shapes the gateway's
// extractor understands, so each precedence rule can be exercised end to end.
func payloadFor(shape, content string) any {
	switch shape {
	case "choices":
		return map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		}
	case "generated_text":
		return map[string]string{"generated_text": content}
	case "output":
		return map[string]string{"output": content}
	case "response":
		return map[string]string{"response": content}
	default:
		return map[string]string{"reply": fmt.Sprintf("unknown shape %q: %s", shape, content)}
	}
}
