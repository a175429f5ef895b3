package di_test

import "errors"

type IClock interface{ Now() int }

type Clock struct{ ticks int }

func (c *Clock) Now() int { c.ticks++; return c.ticks }

type IWidget interface{ Name() string }

type Widget struct {
	Clock IClock `inject:""`
}

func (w *Widget) Name() string { return "widget" }

type IAudit interface{ Record(string) }

type Report struct {
	Clock IClock `inject:""`
	Audit IAudit `inject:"optional"`
}

func (r *Report) Name() string { return "report" }

// closer records the order in which instances are closed.
type closer struct {
	id  string
	log *[]string
	err error
}

func (c *closer) Close() error {
	*c.log = append(*c.log, c.id)
	return c.err
}

type IConn interface{ Close() error }

type Conn struct{ closed bool }

func (c *Conn) Close() error { c.closed = true; return nil }

// cycle: A -> B -> A
type IA interface{ A() }
type IB interface{ B() }

type A struct {
	B IB `inject:""`
}

func (*A) A() {}

type B struct {
	A IA `inject:""`
}

func (*B) B() {}

type hidden struct {
	clock IClock `inject:""`
}

func (*hidden) Name() string { return "hidden" }

var errBoom = errors.New("boom")
