package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// APIError is a failure response from the SeedSell API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

// envelope is the API's uniform response shape.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// HTTPBackend implements Backend against the SeedSell REST API.
type HTTPBackend struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPBackend creates a backend client for the API at baseURL
// (e.g. "https://api.seedsell.co.zw"). token is the bearer access token.
func NewHTTPBackend(baseURL, token string) *HTTPBackend {
	return &HTTPBackend{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// call issues one API request and decodes the envelope's data into out.
func (b *HTTPBackend) call(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+"/api/v1"+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Add("Authorization", "Bearer "+b.token)
	if body != nil {
		req.Header.Add("Content-Type", "application/json")
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}

	if !env.Success {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return apiErr
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode data from %s: %w", path, err)
		}
	}
	return nil
}

// FetchProfile returns the signed-in user's profile.
func (b *HTTPBackend) FetchProfile(ctx context.Context, userID string) (Profile, error) {
	var profile Profile
	err := b.call(ctx, http.MethodGet, "/profiles/me", nil, &profile)
	return profile, err
}

// roomDTO matches the API's room shape with its nested profiles.
type roomDTO struct {
	ID       string `json:"id"`
	BuyerID  string `json:"buyer_id"`
	FarmerID string `json:"farmer_id"`
	Buyer    struct {
		FullName string `json:"full_name"`
	} `json:"buyer"`
	Farmer struct {
		FullName string `json:"full_name"`
	} `json:"farmer"`
}

func (d roomDTO) record() RoomRecord {
	return RoomRecord{
		ID:         d.ID,
		BuyerID:    d.BuyerID,
		FarmerID:   d.FarmerID,
		BuyerName:  d.Buyer.FullName,
		FarmerName: d.Farmer.FullName,
	}
}

// ListRooms returns every room the user participates in.
func (b *HTTPBackend) ListRooms(ctx context.Context, userID string) ([]RoomRecord, error) {
	var dtos []roomDTO
	if err := b.call(ctx, http.MethodGet, "/rooms", nil, &dtos); err != nil {
		return nil, err
	}

	records := make([]RoomRecord, 0, len(dtos))
	for _, d := range dtos {
		records = append(records, d.record())
	}
	return records, nil
}

// StartChat returns the room for the pair, creating it if needed.
func (b *HTTPBackend) StartChat(ctx context.Context, buyerID, farmerID string) (RoomRecord, error) {
	var dto roomDTO
	body := map[string]string{"farmer_id": farmerID}
	if err := b.call(ctx, http.MethodPost, "/rooms", body, &dto); err != nil {
		return RoomRecord{}, err
	}
	return dto.record(), nil
}

// ListMessages returns a room's history in creation-time order.
func (b *HTTPBackend) ListMessages(ctx context.Context, roomID string) ([]Message, error) {
	var msgs []Message
	err := b.call(ctx, http.MethodGet, "/rooms/"+url.PathEscape(roomID)+"/messages", nil, &msgs)
	return msgs, err
}

// MarkRoomRead marks the room's received messages as read.
func (b *HTTPBackend) MarkRoomRead(ctx context.Context, roomID, userID string) error {
	return b.call(ctx, http.MethodPost, "/rooms/"+url.PathEscape(roomID)+"/read", nil, nil)
}

// MarkMessageRead marks one received message as read.
func (b *HTTPBackend) MarkMessageRead(ctx context.Context, messageID, userID string) error {
	return b.call(ctx, http.MethodPost, "/messages/"+url.PathEscape(messageID)+"/read", nil, nil)
}

// SendMessage persists a message and returns it with its assigned id.
func (b *HTTPBackend) SendMessage(ctx context.Context, roomID, senderID, content string) (Message, error) {
	var msg Message
	body := map[string]string{"message_content": content}
	err := b.call(ctx, http.MethodPost, "/rooms/"+url.PathEscape(roomID)+"/messages", body, &msg)
	return msg, err
}

// UnreadCounts returns the per-room unread totals for the user.
func (b *HTTPBackend) UnreadCounts(ctx context.Context, userID string) (map[string]int64, error) {
	var rows []struct {
		RoomID      string `json:"room_id"`
		UnreadCount int64  `json:"unread_count"`
	}
	if err := b.call(ctx, http.MethodGet, "/messages/unread-counts", nil, &rows); err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.RoomID] = row.UnreadCount
	}
	return counts, nil
}

// WSSubscriber implements Subscriber over the API's websocket endpoint.
type WSSubscriber struct {
	baseURL string
	token   string
	dialer  *websocket.Dialer
}

// NewWSSubscriber creates a subscriber for the API at baseURL.
func NewWSSubscriber(baseURL, token string) *WSSubscriber {
	return &WSSubscriber{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		dialer:  websocket.DefaultDialer,
	}
}

// wsEvent matches the server's realtime event frame.
type wsEvent struct {
	Type    string  `json:"type"`
	Message Message `json:"message"`
}

// wsSubscription owns one websocket connection and its read loop.
type wsSubscription struct {
	conn      *websocket.Conn
	closeOnce sync.Once
	closeErr  error
}

// Close shuts the connection down; the read loop exits on the next read.
func (s *wsSubscription) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}

// SubscribeInserts dials the websocket endpoint and invokes handler for every
// insert event until the subscription is closed or the connection drops.
func (s *WSSubscriber) SubscribeInserts(ctx context.Context, userID string, handler func(Message)) (Subscription, error) {
	wsURL := strings.Replace(s.baseURL, "http", "ws", 1) + "/api/v1/ws"

	header := http.Header{}
	header.Add("Authorization", "Bearer "+s.token)

	conn, resp, err := s.dialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("failed to dial %s (status %d): %w", wsURL, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("failed to dial %s: %w", wsURL, err)
	}

	sub := &wsSubscription{conn: conn}

	go func() {
		defer sub.Close()
		for {
			var event wsEvent
			if err := conn.ReadJSON(&event); err != nil {
				return
			}
			if event.Type == "insert" {
				handler(event.Message)
			}
		}
	}()

	return sub, nil
}
