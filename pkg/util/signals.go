package util

import "sync"

// SignalHandler 信号回调，sender 为触发方，params 为附加参数
type SignalHandler func(sender any, params ...any)

// SignalHub 进程内信号总线，监听器按注册顺序同步执行
type SignalHub struct {
	mu       sync.RWMutex
	handlers map[string][]SignalHandler
}

var (
	sigOnce sync.Once
	sigHub  *SignalHub
)

// Sig returns the process-wide signal hub.
func Sig() *SignalHub {
	sigOnce.Do(func() {
		sigHub = &SignalHub{handlers: make(map[string][]SignalHandler)}
	})
	return sigHub
}

// Connect registers a handler for the named signal.
func (h *SignalHub) Connect(name string, fn SignalHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[name] = append(h.handlers[name], fn)
}

// Emit invokes every handler registered for the named signal, in order.
func (h *SignalHub) Emit(name string, sender any, params ...any) {
	h.mu.RLock()
	fns := make([]SignalHandler, len(h.handlers[name]))
	copy(fns, h.handlers[name])
	h.mu.RUnlock()

	for _, fn := range fns {
		fn(sender, params...)
	}
}
