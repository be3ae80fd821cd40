// Package workflow connects the agent to the pricing tool server over MCP.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/isa-group/harvey/config"
)

// ToolError reports a failure surfaced by the pricing tool server.
type ToolError struct {
	Tool    string
	Message string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %q failed: %s", e.Tool, e.Message)
}

// Client is an MCP session against the pricing tool server. It satisfies
// core.WorkflowClient.
type Client struct {
	session *sdkmcp.ClientSession
	logger  *log.Logger
}

// NewClient connects to the tool server, over stdio when a command is
// configured and over streamable HTTP otherwise.
func NewClient(ctx context.Context, cfg config.WorkflowConfig) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := log.New(log.Writer(), "[WORKFLOW] ", log.LstdFlags)

	client := sdkmcp.NewClient(
		&sdkmcp.Implementation{Name: "harvey", Version: "0.1.0"},
		&sdkmcp.ClientOptions{
			KeepAlive: 30 * time.Second,
			LoggingMessageHandler: func(_ context.Context, req *sdkmcp.LoggingMessageRequest) {
				logger.Printf("server %s: %v", req.Params.Level, req.Params.Data)
			},
		},
	)

	var transport sdkmcp.Transport
	if strings.TrimSpace(cfg.Endpoint) != "" {
		transport = &sdkmcp.StreamableClientTransport{Endpoint: cfg.Endpoint}
	} else {
		cmd := exec.Command(cfg.Command, cfg.Args...)
		cmd.Env = append(os.Environ(), cfg.Env...)
		cmd.Stderr = &logWriter{logger: logger}
		transport = &sdkmcp.CommandTransport{Command: cmd, TerminateDuration: 5 * time.Second}
	}

	connectCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		connectCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}
	session, err := client.Connect(connectCtx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to tool server: %w", err)
	}

	c := &Client{session: session, logger: logger}
	go c.monitorSession()
	return c, nil
}

func (c *Client) monitorSession() {
	if err := c.session.Wait(); err != nil && !errors.Is(err, sdkmcp.ErrConnectionClosed) {
		c.logger.Printf("tool server session ended: %v", err)
	}
}

// Close terminates the tool server session.
func (c *Client) Close() error {
	return c.session.Close()
}

func (c *Client) callTool(ctx context.Context, name string, args map[string]any) (map[string]interface{}, error) {
	res, err := c.session.CallTool(ctx, &sdkmcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return nil, &ToolError{Tool: name, Message: "transport failure: " + err.Error()}
	}
	if res.IsError {
		return nil, &ToolError{Tool: name, Message: joinTextContent(res.Content, "tool reported an error")}
	}
	payload, ok := extractPayload(res)
	if !ok {
		return nil, &ToolError{Tool: name, Message: "did not return JSON content"}
	}
	return payload, nil
}

// RunSummary fetches catalogue metrics for a pricing document.
func (c *Client) RunSummary(ctx context.Context, url, yamlContent string, refresh bool) (map[string]interface{}, error) {
	return c.callTool(ctx, "summary", documentArguments(url, yamlContent, refresh))
}

// RunIPricing fetches the canonical Pricing2Yaml document.
func (c *Client) RunIPricing(ctx context.Context, url, yamlContent string, refresh bool) (map[string]interface{}, error) {
	return c.callTool(ctx, "iPricing", documentArguments(url, yamlContent, refresh))
}

// RunSubscriptions enumerates matching subscription configurations.
func (c *Client) RunSubscriptions(ctx context.Context, url string, filters map[string]interface{}, solver string, refresh bool, yamlContent string) (map[string]interface{}, error) {
	args := documentArguments(url, yamlContent, refresh)
	if filters != nil {
		args["filters"] = filters
	}
	args["solver"] = solver
	return c.callTool(ctx, "subscriptions", args)
}

// RunOptimal finds the best configuration for the given objective.
func (c *Client) RunOptimal(ctx context.Context, url string, filters map[string]interface{}, solver, objective string, refresh bool, yamlContent string) (map[string]interface{}, error) {
	args := documentArguments(url, yamlContent, refresh)
	if filters != nil {
		args["filters"] = filters
	}
	args["solver"] = solver
	args["objective"] = objective
	return c.callTool(ctx, "optimal", args)
}

// RunValidation checks a pricing document against the specification.
func (c *Client) RunValidation(ctx context.Context, url, solver string, refresh bool, yamlContent string) (map[string]interface{}, error) {
	args := documentArguments(url, yamlContent, refresh)
	args["solver"] = solver
	return c.callTool(ctx, "validate", args)
}

// ReadResourceText reads a server resource and concatenates its text parts.
func (c *Client) ReadResourceText(ctx context.Context, uri string) (string, error) {
	res, err := c.session.ReadResource(ctx, &sdkmcp.ReadResourceParams{URI: uri})
	if err != nil {
		return "", fmt.Errorf("reading resource %s: %w", uri, err)
	}
	var parts []string
	for _, content := range res.Contents {
		if content != nil && content.Text != "" {
			parts = append(parts, content.Text)
		}
	}
	return strings.Join(parts, "\n"), nil
}

func documentArguments(url, yamlContent string, refresh bool) map[string]any {
	args := map[string]any{"refresh": refresh}
	if url != "" {
		args["pricing_url"] = url
	}
	if yamlContent != "" {
		args["pricing_yaml"] = yamlContent
	}
	return args
}

// logWriter forwards the tool server's stderr into our log stream.
type logWriter struct {
	logger *log.Logger
}

func (w *logWriter) Write(p []byte) (int, error) {
	if line := strings.TrimSpace(string(p)); line != "" {
		w.logger.Printf("tool server: %s", line)
	}
	return len(p), nil
}
