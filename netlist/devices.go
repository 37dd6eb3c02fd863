package netlist

// device carries the bookkeeping every structural node shares.
type device struct {
	LineInfo

	scope *Scope
	name  string
	attrs map[string]string
}

func makeDevice(scope *Scope, name string) device {
	return device{scope: scope, name: name, attrs: make(map[string]string)}
}

// Name returns the instance name.
func (d *device) Name() string {
	return d.name
}

// Scope returns the owning scope.
func (d *device) Scope() *Scope {
	return d.scope
}

// SetAttr attaches an attribute for downstream passes.
func (d *device) SetAttr(name, val string) {
	d.attrs[name] = val
}

// Attr returns the named attribute or "" when unset.
func (d *device) Attr(name string) string {
	return d.attrs[name]
}

func newPins(count int) []*Pin {
	pins := make([]*Pin, count)
	for i := range pins {
		pins[i] = &Pin{}
	}
	return pins
}

func newDriverPins(count int) []*Pin {
	pins := newPins(count)
	for _, p := range pins {
		p.isDriver = true
	}
	return pins
}

// FF is a bank of D-type flip-flops sharing one set of control inputs.
// The Aset/Sset value vectors give the per bit pattern loaded when the
// corresponding set input fires.
type FF struct {
	device

	data   []*Pin
	q      []*Pin
	clock  *Pin
	enable *Pin
	aset   *Pin
	aclr   *Pin
	sset   *Pin
	sclr   *Pin

	asetValue Vector
	ssetValue Vector
}

// NewFF creates a width bit DFF bank. Every FF is stamped with the
// LPM_FFType attribute downstream code generators look for.
func NewFF(scope *Scope, name string, width int) *FF {
	ff := &FF{
		device: makeDevice(scope, name),
		data:   newPins(width),
		q:      newDriverPins(width),
		clock:  &Pin{},
		enable: &Pin{},
		aset:   &Pin{},
		aclr:   &Pin{},
		sset:   &Pin{},
		sclr:   &Pin{},
	}
	ff.SetAttr("LPM_FFType", "DFF")
	return ff
}

// Width returns the number of bits in the bank.
func (ff *FF) Width() int {
	return len(ff.data)
}

// PinData returns the D input for bit idx.
func (ff *FF) PinData(idx int) *Pin { return ff.data[idx] }

// PinQ returns the Q output for bit idx.
func (ff *FF) PinQ(idx int) *Pin { return ff.q[idx] }

// PinClock returns the clock input.
func (ff *FF) PinClock() *Pin { return ff.clock }

// PinEnable returns the clock enable input.
func (ff *FF) PinEnable() *Pin { return ff.enable }

// PinAset returns the asynchronous set input.
func (ff *FF) PinAset() *Pin { return ff.aset }

// PinAclr returns the asynchronous clear input.
func (ff *FF) PinAclr() *Pin { return ff.aclr }

// PinSset returns the synchronous set input.
func (ff *FF) PinSset() *Pin { return ff.sset }

// PinSclr returns the synchronous clear input.
func (ff *FF) PinSclr() *Pin { return ff.sclr }

// AsetValue returns the pattern loaded on asynchronous set.
func (ff *FF) AsetValue() Vector { return ff.asetValue }

// SetAsetValue stores the pattern loaded on asynchronous set.
func (ff *FF) SetAsetValue(v Vector) { ff.asetValue = v }

// SsetValue returns the pattern loaded on synchronous set.
func (ff *FF) SsetValue() Vector { return ff.ssetValue }

// SetSsetValue stores the pattern loaded on synchronous set.
func (ff *FF) SetSsetValue(v Vector) { ff.ssetValue = v }

// Pins implements Node.
func (ff *FF) Pins() []*Pin {
	pins := make([]*Pin, 0, 2*len(ff.data)+6)
	pins = append(pins, ff.data...)
	pins = append(pins, ff.q...)
	return append(pins, ff.clock, ff.enable, ff.aset, ff.aclr, ff.sset, ff.sclr)
}

// Mux is a width bit wide multiplexer with size data inputs selected by
// selWidth select bits.
type Mux struct {
	device

	result []*Pin
	sel    []*Pin
	data   [][]*Pin // data[item][bit]
}

// NewMux creates a mux of the given geometry.
func NewMux(scope *Scope, name string, width, size, selWidth int) *Mux {
	m := &Mux{
		device: makeDevice(scope, name),
		result: newDriverPins(width),
		sel:    newPins(selWidth),
		data:   make([][]*Pin, size),
	}
	for i := range m.data {
		m.data[i] = newPins(width)
	}
	return m
}

// Width returns the data path width.
func (m *Mux) Width() int { return len(m.result) }

// Size returns the number of data inputs.
func (m *Mux) Size() int { return len(m.data) }

// SelWidth returns the number of select bits.
func (m *Mux) SelWidth() int { return len(m.sel) }

// PinResult returns output bit idx.
func (m *Mux) PinResult(idx int) *Pin { return m.result[idx] }

// PinSel returns select bit idx.
func (m *Mux) PinSel(idx int) *Pin { return m.sel[idx] }

// PinData returns bit wdx of data input item.
func (m *Mux) PinData(wdx, item int) *Pin { return m.data[item][wdx] }

// Pins implements Node.
func (m *Mux) Pins() []*Pin {
	pins := make([]*Pin, 0, len(m.result)+len(m.sel)+len(m.data)*len(m.result))
	pins = append(pins, m.result...)
	pins = append(pins, m.sel...)
	for _, d := range m.data {
		pins = append(pins, d...)
	}
	return pins
}

// Demux is a write-port demultiplexer. The Data inputs carry the current
// value of every bit (normally DFF feedback), the Address selects one word
// and the WriteData bits replace that word on the Q outputs.
type Demux struct {
	device

	q         []*Pin
	data      []*Pin
	address   []*Pin
	writeData []*Pin
}

// NewDemux creates a demux with width data/Q bits, awidth address bits and
// size addressable words. The write port is width/size bits wide.
func NewDemux(scope *Scope, name string, width, awidth, size int) *Demux {
	wd := 1
	if size > 0 {
		wd = width / size
	}
	return &Demux{
		device:    makeDevice(scope, name),
		q:         newDriverPins(width),
		data:      newPins(width),
		address:   newPins(awidth),
		writeData: newPins(wd),
	}
}

// Width returns the data path width.
func (d *Demux) Width() int { return len(d.q) }

// PinQ returns output bit idx.
func (d *Demux) PinQ(idx int) *Pin { return d.q[idx] }

// PinData returns feedback bit idx.
func (d *Demux) PinData(idx int) *Pin { return d.data[idx] }

// PinAddress returns address bit idx.
func (d *Demux) PinAddress(idx int) *Pin { return d.address[idx] }

// PinWriteData returns write port bit idx.
func (d *Demux) PinWriteData(idx int) *Pin { return d.writeData[idx] }

// Pins implements Node.
func (d *Demux) Pins() []*Pin {
	pins := make([]*Pin, 0, 2*len(d.q)+len(d.address)+len(d.writeData))
	pins = append(pins, d.q...)
	pins = append(pins, d.data...)
	pins = append(pins, d.address...)
	return append(pins, d.writeData...)
}

// Decode is the write decoder placed between an addressed l-value and the
// DFF bank that holds it. It enables the addressed word of the bound FF
// while the r-value is broadcast across the Data inputs.
type Decode struct {
	device

	ff        *FF
	address   []*Pin
	wordWidth int
}

// NewDecode creates a decoder bound to ff with awidth address bits
// selecting wordWidth bit words.
func NewDecode(scope *Scope, name string, ff *FF, awidth, wordWidth int) *Decode {
	return &Decode{
		device:    makeDevice(scope, name),
		ff:        ff,
		address:   newPins(awidth),
		wordWidth: wordWidth,
	}
}

// FF returns the bound flip-flop bank.
func (d *Decode) FF() *FF { return d.ff }

// WordWidth returns the decoded word width.
func (d *Decode) WordWidth() int { return d.wordWidth }

// PinAddress returns address bit idx.
func (d *Decode) PinAddress(idx int) *Pin { return d.address[idx] }

// Pins implements Node.
func (d *Decode) Pins() []*Pin {
	return append([]*Pin{}, d.address...)
}

// LogicKind enumerates gate types. Process synthesis only ever emits AND
// gates (enable stacking and 1-hot select reduction).
type LogicKind int

const (
	LogicAND LogicKind = iota
)

// Logic is a simple gate. Pin 0 is the output, pins 1..n-1 the inputs.
type Logic struct {
	device

	kind LogicKind
	pins []*Pin
}

// NewLogic creates a gate with npins total pins.
func NewLogic(scope *Scope, name string, npins int, kind LogicKind) *Logic {
	l := &Logic{
		device: makeDevice(scope, name),
		kind:   kind,
		pins:   newPins(npins),
	}
	l.pins[0].isDriver = true
	return l
}

// Kind returns the gate type.
func (l *Logic) Kind() LogicKind { return l.kind }

// PinCount returns the total pin count.
func (l *Logic) PinCount() int { return len(l.pins) }

// Pin returns pin idx; 0 is the output.
func (l *Logic) Pin(idx int) *Pin { return l.pins[idx] }

// Pins implements Node.
func (l *Logic) Pins() []*Pin {
	return append([]*Pin{}, l.pins...)
}

// CaseCmp is a single bit case equality comparator. Pin 0 is the output,
// pins 1 and 2 the compared bits. Unlike == it matches x and z literally.
type CaseCmp struct {
	device

	pins []*Pin
}

// NewCaseCmp creates a comparator.
func NewCaseCmp(scope *Scope, name string) *CaseCmp {
	c := &CaseCmp{
		device: makeDevice(scope, name),
		pins:   newPins(3),
	}
	c.pins[0].isDriver = true
	return c
}

// Pin returns pin idx; 0 is the output.
func (c *CaseCmp) Pin(idx int) *Pin { return c.pins[idx] }

// Pins implements Node.
func (c *CaseCmp) Pins() []*Pin {
	return append([]*Pin{}, c.pins...)
}

// Const drives a fixed vector onto its pins. Constant detection on nexa
// (DriversConstant/DrivenValue) keys off these pins.
type Const struct {
	device

	val  Vector
	pins []*Pin
}

// NewConst creates a constant driver for val, one pin per bit.
func NewConst(scope *Scope, name string, val Vector) *Const {
	c := &Const{
		device: makeDevice(scope, name),
		val:    val,
		pins:   newPins(val.Len()),
	}
	for i, p := range c.pins {
		p.isDriver = true
		p.isConst = true
		p.cval = val.Get(i)
	}
	return c
}

// Value returns the driven vector.
func (c *Const) Value() Vector { return c.val }

// PinCount returns the width.
func (c *Const) PinCount() int { return len(c.pins) }

// Pin returns bit idx.
func (c *Const) Pin(idx int) *Pin { return c.pins[idx] }

// Pins implements Node.
func (c *Const) Pins() []*Pin {
	return append([]*Pin{}, c.pins...)
}
