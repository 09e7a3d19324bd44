package publishers

import "maps"

// Logger is the slice of the application logger publishers write to.
type Logger interface {
	DebugObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

type discardLogger struct{}

func (discardLogger) DebugObj(string, string, interface{}) {}
func (discardLogger) WarnObj(string, string, interface{})  {}
func (discardLogger) ErrorObj(string, string, interface{}) {}

// publisherLogger stamps publisher_id and publisher_type onto every map
// payload so delivery logs from several publishers can be told apart.
type publisherLogger struct {
	next Logger
	id   string
	typ  string
}

func loggerFor(log Logger, cfg PublisherConfig) Logger {
	if log == nil {
		return discardLogger{}
	}
	if pl, ok := log.(publisherLogger); ok {
		log = pl.next
	}
	return publisherLogger{next: log, id: cfg.ID, typ: cfg.Type}
}

func (p publisherLogger) DebugObj(msg, key string, obj interface{}) {
	p.next.DebugObj(msg, key, p.stamp(obj))
}

func (p publisherLogger) WarnObj(msg, key string, obj interface{}) {
	p.next.WarnObj(msg, key, p.stamp(obj))
}

func (p publisherLogger) ErrorObj(msg, key string, obj interface{}) {
	p.next.ErrorObj(msg, key, p.stamp(obj))
}

func (p publisherLogger) stamp(obj interface{}) interface{} {
	fields, ok := obj.(map[string]any)
	if !ok {
		return obj
	}
	out := make(map[string]any, len(fields)+2)
	maps.Copy(out, fields)
	out["publisher_id"] = p.id
	out["publisher_type"] = p.typ
	return out
}
