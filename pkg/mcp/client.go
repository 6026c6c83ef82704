package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// MCPClient speaks the MCP JSON-RPC protocol over a Transport: it tracks
// in-flight requests by ID, demultiplexes responses/notifications/requests
// arriving on a background receive loop, and exposes the tools/resources/
// prompts surface as typed Go methods.
type MCPClient struct {
	transport   Transport
	idGen       *IDGenerator
	initialized bool

	pendingMu sync.RWMutex
	pending   map[interface{}]chan *MCPMessage

	serverInfo       ServerInfo
	serverCapability ServerCapabilities
	clientInfo       ClientInfo

	ctx    context.Context
	cancel context.CancelFunc

	config MCPClientConfig
}

// MCPClientConfig configures an MCPClient's identity and call behavior.
type MCPClientConfig struct {
	ClientName    string
	ClientVersion string

	// RequestTimeoutMS bounds each individual call; 0 means the 30s default.
	RequestTimeoutMS int

	EnableLogging bool
}

const (
	defaultClientName      = "agentcore-mcp-client"
	defaultClientVersion   = "1.0.0"
	defaultRequestTimeout  = 30000
)

// NewMCPClient builds a client bound to transport, filling any unset
// MCPClientConfig fields with their defaults. The returned client isn't
// connected until Connect is called.
func NewMCPClient(transport Transport, config MCPClientConfig) *MCPClient {
	if config.ClientName == "" {
		config.ClientName = defaultClientName
	}
	if config.ClientVersion == "" {
		config.ClientVersion = defaultClientVersion
	}
	if config.RequestTimeoutMS == 0 {
		config.RequestTimeoutMS = defaultRequestTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &MCPClient{
		transport: transport,
		idGen:     NewIDGenerator(),
		pending:   make(map[interface{}]chan *MCPMessage),
		clientInfo: ClientInfo{
			Name:    config.ClientName,
			Version: config.ClientVersion,
		},
		ctx:    ctx,
		cancel: cancel,
		config: config,
	}
}

// Connect opens the transport, starts the background receive loop, and
// runs the initialize handshake. The client is usable only after Connect
// returns without error.
func (c *MCPClient) Connect(ctx context.Context) error {
	if err := c.transport.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect transport: %w", err)
	}

	go c.receiveLoop()

	if err := c.initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}

	c.initialized = true
	return nil
}

// Close stops the receive loop, releases every call blocked in call() with
// a closed-channel read, and closes the underlying transport.
func (c *MCPClient) Close() error {
	c.cancel()

	c.pendingMu.Lock()
	for _, ch := range c.pending {
		close(ch)
	}
	c.pending = make(map[interface{}]chan *MCPMessage)
	c.pendingMu.Unlock()

	return c.transport.Close()
}

// initialize runs the MCP handshake: send "initialize", record the server's
// reported info/capabilities, then send the "initialized" notification.
func (c *MCPClient) initialize(ctx context.Context) error {
	params := InitializeParams{
		ProtocolVersion: ProtocolVersion,
		Capabilities: ClientCapabilities{
			Experimental: make(map[string]interface{}),
			Roots: &RootsCapability{
				ListChanged: false,
			},
			Sampling: &SamplingCapability{},
		},
		ClientInfo: c.clientInfo,
	}

	var result InitializeResult
	if err := c.call(ctx, "initialize", params, &result); err != nil {
		return fmt.Errorf("initialize failed: %w", err)
	}

	c.serverInfo = result.ServerInfo
	c.serverCapability = result.Capabilities

	// Send initialized notification
	if err := c.notify(ctx, "notifications/initialized", nil); err != nil {
		return fmt.Errorf("failed to send initialized notification: %w", err)
	}

	return nil
}

// requireInitialized returns an error unless Connect has already completed
// the handshake; every call method below guards on it first.
func (c *MCPClient) requireInitialized() error {
	if !c.initialized {
		return fmt.Errorf("client not initialized")
	}
	return nil
}

// ListTools lists the tools the connected server currently exposes.
// Pagination via ListToolsResult.NextCursor is not followed here;
// GetSerializableTools returns the same first page together with its
// NextCursor.
func (c *MCPClient) ListTools(ctx context.Context) ([]MCPTool, error) {
	if err := c.requireInitialized(); err != nil {
		return nil, err
	}

	var result ListToolsResult
	if err := c.call(ctx, "tools/list", ListToolsParams{}, &result); err != nil {
		return nil, fmt.Errorf("failed to list tools: %w", err)
	}
	return result.Tools, nil
}

// GetSerializableTools returns the raw ListToolsResult (including pagination
// fields) so a caller can cache or transmit it as-is.
func (c *MCPClient) GetSerializableTools(ctx context.Context) (*ListToolsResult, error) {
	if err := c.requireInitialized(); err != nil {
		return nil, err
	}

	var result ListToolsResult
	if err := c.call(ctx, "tools/list", ListToolsParams{}, &result); err != nil {
		return nil, fmt.Errorf("failed to get serializable tools: %w", err)
	}
	return &result, nil
}

// CallTool invokes name on the server with the given arguments.
func (c *MCPClient) CallTool(ctx context.Context, name string, arguments map[string]interface{}) (*CallToolResult, error) {
	if err := c.requireInitialized(); err != nil {
		return nil, err
	}

	var result CallToolResult
	params := CallToolParams{Name: name, Arguments: arguments}
	if err := c.call(ctx, "tools/call", params, &result); err != nil {
		return nil, fmt.Errorf("failed to call tool: %w", err)
	}
	return &result, nil
}

// ListResources lists the resources the connected server currently exposes.
func (c *MCPClient) ListResources(ctx context.Context) ([]MCPResource, error) {
	if err := c.requireInitialized(); err != nil {
		return nil, err
	}

	var result ListResourcesResult
	if err := c.call(ctx, "resources/list", ListResourcesParams{}, &result); err != nil {
		return nil, fmt.Errorf("failed to list resources: %w", err)
	}
	return result.Resources, nil
}

// ReadResource fetches the resource at uri.
func (c *MCPClient) ReadResource(ctx context.Context, uri string) (*ReadResourceResult, error) {
	if err := c.requireInitialized(); err != nil {
		return nil, err
	}

	var result ReadResourceResult
	if err := c.call(ctx, "resources/read", ReadResourceParams{URI: uri}, &result); err != nil {
		return nil, fmt.Errorf("failed to read resource: %w", err)
	}
	return &result, nil
}

// ListPrompts lists the prompts the connected server currently exposes.
func (c *MCPClient) ListPrompts(ctx context.Context) ([]MCPPrompt, error) {
	if err := c.requireInitialized(); err != nil {
		return nil, err
	}

	var result ListPromptsResult
	if err := c.call(ctx, "prompts/list", ListPromptsParams{}, &result); err != nil {
		return nil, fmt.Errorf("failed to list prompts: %w", err)
	}
	return result.Prompts, nil
}

// GetPrompt renders the named prompt template with arguments.
func (c *MCPClient) GetPrompt(ctx context.Context, name string, arguments map[string]interface{}) (*GetPromptResult, error) {
	if err := c.requireInitialized(); err != nil {
		return nil, err
	}

	var result GetPromptResult
	params := GetPromptParams{Name: name, Arguments: arguments}
	if err := c.call(ctx, "prompts/get", params, &result); err != nil {
		return nil, fmt.Errorf("failed to get prompt: %w", err)
	}
	return &result, nil
}

func (c *MCPClient) ServerInfo() ServerInfo {
	return c.serverInfo
}

func (c *MCPClient) ServerCapabilities() ServerCapabilities {
	return c.serverCapability
}

// call sends a JSON-RPC request and blocks until receiveLoop delivers the
// matching response, the per-call timeout fires, ctx is canceled, or the
// client itself is closed - whichever comes first.
func (c *MCPClient) call(ctx context.Context, method string, params interface{}, result interface{}) error {
	id := c.idGen.Next()
	msg, err := CreateRequest(id, method, params)
	if err != nil {
		return err
	}

	responseCh := make(chan *MCPMessage, 1)
	c.pendingMu.Lock()
	c.pending[id] = responseCh
	c.pendingMu.Unlock()

	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
	}()

	if err := c.transport.Send(ctx, msg); err != nil {
		return NewTransportError("failed to send request", err)
	}

	timeout := time.Duration(c.config.RequestTimeoutMS) * time.Millisecond
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case response := <-responseCh:
		if response == nil {
			return fmt.Errorf("connection closed")
		}
		if response.Error != nil {
			return GetError(response)
		}
		if result != nil && response.Result != nil {
			if err := json.Unmarshal(response.Result, result); err != nil {
				return fmt.Errorf("failed to unmarshal result: %w", err)
			}
		}
		return nil

	case <-timer.C:
		return NewTimeoutError(method)

	case <-ctx.Done():
		return ctx.Err()

	case <-c.ctx.Done():
		return fmt.Errorf("client closed")
	}
}

// notify sends a JSON-RPC notification; the server never replies to one.
func (c *MCPClient) notify(ctx context.Context, method string, params interface{}) error {
	msg, err := CreateNotification(method, params)
	if err != nil {
		return err
	}
	return c.transport.Send(ctx, msg)
}

// receiveLoop owns the transport's read side: it runs until the client is
// closed or Receive errors, routing each inbound message to the pending
// call it answers, or to the notification/request handler.
func (c *MCPClient) receiveLoop() {
	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		msg, err := c.transport.Receive(c.ctx)
		if err != nil {
			if c.config.EnableLogging {
				fmt.Printf("MCP receive error: %v\n", err)
			}
			return
		}

		switch {
		case IsResponse(msg):
			c.pendingMu.RLock()
			ch, ok := c.pending[msg.ID]
			c.pendingMu.RUnlock()
			if ok {
				select {
				case ch <- msg:
				default:
					// pending channel already delivered or closed
				}
			}
		case IsNotification(msg):
			c.handleNotification(msg)
		case IsRequest(msg):
			c.handleRequest(msg)
		}
	}
}

// handleNotification logs a server-initiated notification; this client
// doesn't yet act on any particular notification method.
func (c *MCPClient) handleNotification(msg *MCPMessage) {
	if c.config.EnableLogging {
		fmt.Printf("MCP notification: %s\n", msg.Method)
	}
}

// handleRequest answers a server-initiated request; this client exposes no
// server-callable methods, so every request gets method-not-found.
func (c *MCPClient) handleRequest(msg *MCPMessage) {
	response := CreateErrorResponse(msg.ID, ErrorCodeMethodNotFound, "Method not found", nil)
	_ = c.transport.Send(c.ctx, response)
}
