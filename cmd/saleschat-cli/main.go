// Command saleschat-cli is an interactive terminal client for a running
// saleschat server.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).Padding(0, 1)
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	answerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	metaStyle   = lipgloss.NewStyle().Faint(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

type chatResponse struct {
	SessionID string           `json:"session_id"`
	Type      string           `json:"type"`
	Answer    string           `json:"answer"`
	SQLQuery  string           `json:"sql_query"`
	Results   []map[string]any `json:"results"`
	Sources   []string         `json:"sources"`
	Err       string           `json:"error"`
}

type client struct {
	baseURL   string
	sessionID string
	http      *http.Client
}

func main() {
	addr := flag.String("addr", "http://localhost:8080", "saleschat server address")
	flag.Parse()

	c := &client{
		baseURL: strings.TrimRight(*addr, "/"),
		http:    &http.Client{Timeout: 2 * time.Minute},
	}

	fmt.Println(titleStyle.Render("Sales Assistant"))
	fmt.Println(metaStyle.Render("Ask about your sales data or documents. Commands: /history /clear /schema /quit"))
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(promptStyle.Render("you> "))
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case "/quit", "/exit":
			return
		case "/history":
			c.showHistory()
		case "/clear":
			c.clearHistory()
		case "/schema":
			c.showSchema()
		default:
			c.ask(line)
		}
	}
}

func (c *client) ask(question string) {
	body, _ := json.Marshal(map[string]string{
		"session_id": c.sessionID,
		"question":   question,
	})

	resp, err := c.http.Post(c.baseURL+"/api/chat", "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Println(errorStyle.Render("request failed: " + err.Error()))
		return
	}
	defer resp.Body.Close()

	var reply chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		fmt.Println(errorStyle.Render("invalid response: " + err.Error()))
		return
	}
	c.sessionID = reply.SessionID

	fmt.Println(answerStyle.Render(reply.Answer))
	if reply.SQLQuery != "" {
		fmt.Println(metaStyle.Render("sql: " + reply.SQLQuery))
	}
	if len(reply.Sources) > 0 {
		fmt.Println(metaStyle.Render("sources: " + strings.Join(reply.Sources, ", ")))
	}
	if reply.Err != "" {
		fmt.Println(errorStyle.Render("error: " + reply.Err))
	}
	fmt.Println()
}

func (c *client) showHistory() {
	if c.sessionID == "" {
		fmt.Println(metaStyle.Render("no session yet"))
		return
	}

	var payload struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	if err := c.get("/api/history?session_id="+url.QueryEscape(c.sessionID), &payload); err != nil {
		fmt.Println(errorStyle.Render(err.Error()))
		return
	}
	for _, msg := range payload.Messages {
		fmt.Printf("%s %s\n", promptStyle.Render(msg.Role+":"), msg.Content)
	}
	fmt.Println()
}

func (c *client) clearHistory() {
	if c.sessionID == "" {
		fmt.Println(metaStyle.Render("no session yet"))
		return
	}

	req, _ := http.NewRequest(http.MethodDelete, c.baseURL+"/api/history?session_id="+url.QueryEscape(c.sessionID), nil)
	resp, err := c.http.Do(req)
	if err != nil {
		fmt.Println(errorStyle.Render("request failed: " + err.Error()))
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	fmt.Println(metaStyle.Render("history cleared"))
}

func (c *client) showSchema() {
	var payload struct {
		Schema string `json:"schema"`
	}
	if err := c.get("/api/schema", &payload); err != nil {
		fmt.Println(errorStyle.Render(err.Error()))
		return
	}
	fmt.Println(answerStyle.Render(payload.Schema))
}

func (c *client) get(path string, out any) error {
	resp, err := c.http.Get(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
