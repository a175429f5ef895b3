package autoservice_test

import "github.com/sghaida/autoservice/autoservice"

// Conventional binding, default lifetime.
type IWidget interface{ Render() string }

type Widget struct {
	autoservice.Service
}

func (*Widget) Render() string { return "widget" }

// Explicit binding by name and lifetime; the name does not follow the convention.
type ICacheStore interface{ Get(key string) (string, bool) }

type Cache struct {
	_ autoservice.Service `autoservice:"lifetime=Singleton,interface=ICacheStore"`

	items map[string]string
}

func (c *Cache) Get(key string) (string, bool) {
	v, ok := c.items[key]
	return v, ok
}

// Marked singleton whose interface does not follow the convention.
type ILoggerSink interface{ Write(string) }

type Logger struct {
	autoservice.Service `autoservice:"lifetime=singleton"`
}

func (*Logger) Write(string) {}

// Transient with the convention, and a field dependency.
type IClock interface{ Now() int }

type Clock struct {
	autoservice.Service `autoservice:"lifetime=transient"`
}

func (*Clock) Now() int { return 1 }

// Not marked, even though IPlain exists.
type IPlain interface{ Plain() }

type Plain struct{}

func (*Plain) Plain() {}

// Two markers.
type Twice struct {
	autoservice.Service
	_ autoservice.Service `autoservice:"lifetime=transient"`
}

func (*Twice) Render() string { return "twice" }

// Second implementation of IWidget bound explicitly.
type FancyWidget struct {
	autoservice.Service `autoservice:"interface=IWidget"`
}

func (*FancyWidget) Render() string { return "fancy" }

// Bad tag.
type BadTag struct {
	autoservice.Service `autoservice:"lifetime=forever"`
}

// Names an interface the module does not declare.
type Orphan struct {
	autoservice.Service `autoservice:"interface=IMissing"`
}

// Unmarked type used only through Module.Mark.
type Ticker struct{}

func (*Ticker) Now() int { return 2 }

func widgetModule() *autoservice.Module {
	return autoservice.NewModule("example.com/widgets").
		Add((*Widget)(nil), (*Cache)(nil), (*Clock)(nil), (*Plain)(nil)).
		Interfaces((*IWidget)(nil), (*ICacheStore)(nil), (*IClock)(nil), (*IPlain)(nil))
}
