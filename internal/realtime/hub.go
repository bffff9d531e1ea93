package realtime

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// Broadcaster: Sipariş ve stok taraflarının kullandığı yayın arayüzü.
// Testler bunu sahte bir implementasyonla değiştirir.
type Broadcaster interface {
	Broadcast(channel, event string, payload any)
}

// Kanal isimleri tenant bazlıdır; her tenant yalnızca kendi yayınını görür.
func DashboardChannel(tenantID uint) string {
	return fmt.Sprintf("dashboard:%d", tenantID)
}

func KitchenChannel(tenantID uint) string {
	return fmt.Sprintf("kds:%d", tenantID)
}

type Message struct {
	Event   string    `json:"event"`
	Payload any       `json:"payload"`
	SentAt  time.Time `json:"sent_at"`
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex // aynı bağlantıya eşzamanlı yazmayı engeller
}

func (cl *client) write(data []byte) error {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	_ = cl.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return cl.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub: Kanal bazlı websocket abone listesi. Broadcast asla çağıranı bloklamaz;
// yazma hataları sadece loglanır ve bağlantı düşürülür.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]map[*client]bool
}

func NewHub() *Hub {
	return &Hub{channels: make(map[string]map[*client]bool)}
}

func (h *Hub) subscribe(channel string, cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.channels[channel] == nil {
		h.channels[channel] = make(map[*client]bool)
	}
	h.channels[channel][cl] = true
}

func (h *Hub) unsubscribe(channel string, cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.channels[channel], cl)
	if len(h.channels[channel]) == 0 {
		delete(h.channels, channel)
	}
}

// SubscriberCount: Kanaldaki aktif abone sayısı.
func (h *Hub) SubscriberCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

// Broadcast: Mesajı kanaldaki tüm abonelere gönderir. Gönderim ayrı bir
// goroutine'de yapılır; başarısızlık çağırana asla yansımaz.
func (h *Hub) Broadcast(channel, event string, payload any) {
	data, err := json.Marshal(Message{Event: event, Payload: payload, SentAt: time.Now()})
	if err != nil {
		log.Printf("[realtime] mesaj serileştirilemedi (%s/%s): %v", channel, event, err)
		return
	}

	h.mu.RLock()
	subs := make([]*client, 0, len(h.channels[channel]))
	for cl := range h.channels[channel] {
		subs = append(subs, cl)
	}
	h.mu.RUnlock()

	for _, cl := range subs {
		go func(cl *client) {
			if err := cl.write(data); err != nil {
				log.Printf("[realtime] yayın gönderilemedi (%s): %v", channel, err)
				h.unsubscribe(channel, cl)
				_ = cl.conn.Close()
			}
		}(cl)
	}
}

// UpgradeMiddleware: /ws altındaki isteklerin websocket upgrade olmasını şart koşar.
func UpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

// Handler: GET /ws/:channel — bağlantıyı kanala abone eder, bağlantı kopana
// kadar okur. İstemciden veri beklenmez; okuma sadece kopuşu yakalamak içindir.
func (h *Hub) Handler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		channel := conn.Params("channel")
		cl := &client{conn: conn}

		h.subscribe(channel, cl)
		defer func() {
			h.unsubscribe(channel, cl)
			_ = conn.Close()
		}()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
}
