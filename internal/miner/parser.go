package miner

import (
	"strconv"
	"strings"

	"stormplot/internal/logger"
	"stormplot/internal/miner/pysrc"
	"stormplot/internal/spec"
)

// Axis methods whose receiver is resolved to an axis key.
var axisMethods = map[string]bool{
	"plot":           true,
	"legend":         true,
	"set_title":      true,
	"set_ylabel":     true,
	"set_xlabel":     true,
	"set":            true,
	"grid":           true,
	"tick_params":    true,
	"minorticks_off": true,
}

// Frame attributes that are not columns.
var frameAttrs = map[string]bool{
	"index": true, "columns": true, "values": true, "loc": true, "iloc": true,
	"at": true, "iat": true, "T": true, "shape": true, "dtypes": true,
}

const loopLimit = 1000

// FigureParser walks the statements of one source unit and collects a
// figure for every savefig call it can attribute to constant file name.
//
// Axis handles are tracked through an alias table mapping variable names to
// canonical axis keys of the form name[row,col]; twin axes carry the
// __secondary suffix. Columns are tracked through the most recent binding
// of a variable to a dataframe[column] expression. Anything the parser does
// not recognise is ignored.
type FigureParser struct {
	log *logger.Logger

	fig     *figureState
	aliases map[string]string
	axes    map[string]*axisState
	order   []string
	arrays  map[string]arrayShape
	current string

	varColumn  map[string]string
	dataframes map[string]bool
	figVars    map[string]bool
	consts     map[string]pysrc.Expr
	seqs       map[string][]pysrc.Expr

	figures []spec.Figure
}

// NewFigureParser creates a parser. dataframes is shared with the caller so
// names discovered in one cell are known in the next; nil starts from {"df"}.
func NewFigureParser(dataframes map[string]bool, log *logger.Logger) *FigureParser {
	if dataframes == nil {
		dataframes = map[string]bool{"df": true}
	}
	if log == nil {
		log = logger.WithComponent("miner")
	}
	p := &FigureParser{
		log:        log,
		varColumn:  make(map[string]string),
		dataframes: dataframes,
		figVars:    make(map[string]bool),
		consts:     make(map[string]pysrc.Expr),
		seqs:       make(map[string][]pysrc.Expr),
	}
	p.resetAxes()
	return p
}

// Figures returns the figures emitted so far.
func (p *FigureParser) Figures() []spec.Figure {
	return p.figures
}

// ParseSource parses src and processes its statements. Syntax errors only
// drop the statements they occur in; they are returned for reporting.
func (p *FigureParser) ParseSource(src string) []error {
	mod, errs := pysrc.Parse(src)
	p.processStmts(mod.Body)
	return errs
}

func (p *FigureParser) resetAxes() {
	p.aliases = make(map[string]string)
	p.axes = make(map[string]*axisState)
	p.order = nil
	p.arrays = make(map[string]arrayShape)
	p.current = ""
}

func (p *FigureParser) ensureFigure() *figureState {
	if p.fig == nil {
		p.fig = &figureState{rows: 1, cols: 1}
	}
	return p.fig
}

func (p *FigureParser) processStmts(stmts []pysrc.Stmt) {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *pysrc.Assign:
			p.processAssign(s.Targets, s.Value)
		case *pysrc.ExprStmt:
			if call, ok := s.Value.(*pysrc.Call); ok {
				p.processCall(call)
			}
		case *pysrc.For:
			p.processFor(s)
		case *pysrc.With:
			p.processStmts(s.Body)
		}
	}
}

// resolve follows the alias chain for key, stopping on cycles.
func (p *FigureParser) resolve(key string) string {
	seen := make(map[string]bool)
	for {
		next, ok := p.aliases[key]
		if !ok || seen[key] {
			return key
		}
		seen[key] = true
		key = next
	}
}

// pyplotAxis is the axis implicit plt.* calls act on.
func (p *FigureParser) pyplotAxis() string {
	if p.current != "" {
		return p.current
	}
	return "plt"
}

func (p *FigureParser) processAssign(targets []pysrc.Expr, value pysrc.Expr) {
	if len(targets) == 1 {
		if t, ok := targets[0].(*pysrc.Tuple); ok {
			if v, ok := value.(*pysrc.Tuple); ok && len(v.Elts) == len(t.Elts) {
				for i := range t.Elts {
					p.processAssign([]pysrc.Expr{t.Elts[i]}, v.Elts[i])
				}
				return
			}
		}
	}
	names := targetNames(targets)

	switch v := value.(type) {
	case *pysrc.Subscript:
		if col := p.columnOf(v); col != "" {
			for _, n := range names {
				p.varColumn[n] = col
			}
			return
		}
		if p.isFrame(v.Value) {
			p.addFrames(names)
			return
		}
		if call, ok := v.Value.(*pysrc.Call); ok {
			p.processCall(call)
		}
		key := p.resolve(p.axisKey(v))
		for _, n := range names {
			p.aliases[n] = key
		}
	case *pysrc.Call:
		p.assignCall(targets, names, v)
	case *pysrc.Name:
		for _, n := range names {
			switch {
			case p.varColumn[v.ID] != "":
				p.varColumn[n] = p.varColumn[v.ID]
			case p.dataframes[v.ID]:
				p.dataframes[n] = true
			case p.consts[v.ID] != nil:
				p.consts[n] = p.consts[v.ID]
			case p.seqs[v.ID] != nil:
				p.seqs[n] = p.seqs[v.ID]
			default:
				p.aliases[n] = p.resolve(p.axisKey(v))
			}
		}
	case *pysrc.Constant:
		for _, n := range names {
			p.consts[n] = v
		}
	case *pysrc.List:
		for _, n := range names {
			p.seqs[n] = v.Elts
		}
	case *pysrc.Tuple:
		for _, n := range names {
			p.seqs[n] = v.Elts
		}
	}
}

func (p *FigureParser) assignCall(targets []pysrc.Expr, names []string, call *pysrc.Call) {
	switch fn := call.Func.(type) {
	case *pysrc.Attribute:
		if callee, ok := fn.Value.(*pysrc.Name); ok {
			if (callee.ID == "pd" || callee.ID == "pandas") && (fn.Attr == "read_csv" || fn.Attr == "read_excel") {
				p.addFrames(names)
			} else if p.dataframes[callee.ID] {
				p.addFrames(names)
			}
		}
		switch fn.Attr {
		case "subplots":
			var axisTarget pysrc.Expr
			if t, ok := targets[0].(*pysrc.Tuple); ok && len(t.Elts) >= 2 {
				axisTarget = t.Elts[1]
				if name, ok := t.Elts[0].(*pysrc.Name); ok {
					p.figVars[name.ID] = true
				}
			}
			p.startFigure(call, axisTarget)
			return
		case "figure":
			if isName(fn.Value, "plt") {
				p.startPyplotFigure()
				for _, n := range names {
					p.figVars[n] = true
				}
				return
			}
		}
		if key, ok := p.callAxis(call); ok {
			for _, n := range names {
				p.aliases[n] = key
			}
			return
		}
	case *pysrc.Name:
		if p.dataframes[fn.ID] {
			p.addFrames(names)
		}
	}
	if col := p.columnOf(call); col != "" {
		for _, n := range names {
			p.varColumn[n] = col
		}
		return
	}
	p.processCall(call)
}

func (p *FigureParser) addFrames(names []string) {
	for _, n := range names {
		p.dataframes[n] = true
	}
}

// startFigure begins a figure from a subplots call. Pending axes of an
// unsaved figure are discarded.
func (p *FigureParser) startFigure(call *pysrc.Call, axisTarget pysrc.Expr) {
	var dims []int
	for _, arg := range call.Args {
		if v, ok := pysrc.IntValue(arg); ok {
			dims = append(dims, int(v))
		}
	}
	rows, cols := 1, 1
	switch {
	case len(dims) >= 2:
		rows, cols = dims[0], dims[1]
	case len(dims) == 1:
		rows = dims[0]
	}
	if v, ok := p.int(keyword(call, "nrows")); ok {
		rows = v
	}
	if v, ok := p.int(keyword(call, "ncols")); ok {
		cols = v
	}
	rows, cols = max(rows, 1), max(cols, 1)

	sharex := false
	if v, ok := pysrc.Truthy(keyword(call, "sharex")); ok {
		sharex = v
	}
	p.fig = &figureState{rows: rows, cols: cols, sharex: sharex}
	p.resetAxes()

	switch t := axisTarget.(type) {
	case *pysrc.Name:
		p.aliases[t.ID] = t.ID
		if rows*cols > 1 {
			p.arrays[t.ID] = arrayShape{rows: rows, cols: cols, twoD: rows > 1 && cols > 1}
			p.current = cellKey(t.ID, rows-1, cols-1)
		} else {
			p.current = t.ID
		}
	case *pysrc.Tuple:
		p.unpackAxes(t, rows, cols)
	}
}

// unpackAxes binds the names of fig, (a, b) = plt.subplots(...) and
// fig, ((a, b), (c, d)) = plt.subplots(2, 2) to cells.
func (p *FigureParser) unpackAxes(t *pysrc.Tuple, rows, cols int) {
	const base = "axes"
	bind := func(e pysrc.Expr, r, c int) {
		if n, ok := e.(*pysrc.Name); ok {
			key := cellKey(base, r, c)
			p.aliases[n.ID] = key
			p.current = key
		}
	}
	if rows > 1 && cols > 1 {
		for r, rowExpr := range t.Elts {
			if inner, ok := rowExpr.(*pysrc.Tuple); ok {
				for c, e := range inner.Elts {
					bind(e, r, c)
				}
			}
		}
		return
	}
	for i, e := range t.Elts {
		if rows == 1 {
			bind(e, 0, i)
		} else {
			bind(e, i, 0)
		}
	}
}

func (p *FigureParser) startPyplotFigure() {
	p.fig = &figureState{rows: 1, cols: 1}
	p.resetAxes()
}

// callAxis returns the axis produced by an axes-returning call: twinx,
// gca, subplot and add_subplot.
func (p *FigureParser) callAxis(call *pysrc.Call) (string, bool) {
	fn, ok := call.Func.(*pysrc.Attribute)
	if !ok {
		return "", false
	}
	switch fn.Attr {
	case "twinx":
		base := strings.TrimSuffix(p.resolve(p.axisKey(fn.Value)), secondarySuffix)
		key := base + secondarySuffix
		p.current = key
		return key, true
	case "gca", "axes":
		if isName(fn.Value, "plt") || p.isFigVar(fn.Value) {
			return p.pyplotAxis(), true
		}
	case "subplot", "add_subplot":
		if !isName(fn.Value, "plt") && !p.isFigVar(fn.Value) {
			return "", false
		}
		rows, cols, index, ok := p.subplotArgs(call)
		if !ok {
			return "", false
		}
		fig := p.ensureFigure()
		fig.rows, fig.cols = max(fig.rows, rows), max(fig.cols, cols)
		key := cellKey("subplot", (index-1)/cols, (index-1)%cols)
		p.current = key
		return key, true
	}
	return "", false
}

// subplotArgs reads (rows, cols, index) or the three-digit shorthand 211.
func (p *FigureParser) subplotArgs(call *pysrc.Call) (int, int, int, bool) {
	var nums []int
	for _, arg := range call.Args {
		v, ok := p.int(arg)
		if !ok {
			return 0, 0, 0, false
		}
		nums = append(nums, v)
	}
	switch {
	case len(nums) == 0:
		return 1, 1, 1, true
	case len(nums) == 1 && nums[0] >= 111 && nums[0] <= 999:
		nums = []int{nums[0] / 100, nums[0] / 10 % 10, nums[0] % 10}
	case len(nums) != 3:
		return 0, 0, 0, false
	}
	rows, cols, index := nums[0], nums[1], nums[2]
	if rows < 1 || cols < 1 || index < 1 || index > rows*cols {
		return 0, 0, 0, false
	}
	return rows, cols, index, true
}

// axisKey returns the unresolved canonical key an expression denotes.
func (p *FigureParser) axisKey(e pysrc.Expr) string {
	switch n := e.(type) {
	case *pysrc.Name:
		if n.ID == "plt" {
			return p.pyplotAxis()
		}
		return n.ID
	case *pysrc.Subscript:
		if key, ok := p.subscriptKey(n); ok {
			return key
		}
	case *pysrc.Call:
		if key, ok := p.callAxis(n); ok {
			return key
		}
	}
	return pysrc.Source(e)
}

// subscriptKey normalizes axs[i, j], axs[i][j] and, for one-dimensional
// arrays, axs[i]. Negative indexes count from the end when the shape is known.
func (p *FigureParser) subscriptKey(sub *pysrc.Subscript) (string, bool) {
	if inner, ok := sub.Value.(*pysrc.Subscript); ok {
		name, shape, known := p.array(inner.Value)
		i, ok1 := p.int(inner.Index)
		j, ok2 := p.int(sub.Index)
		if !known || !shape.twoD || !ok1 || !ok2 {
			return "", false
		}
		return cellIndex(name, wrap(i, shape.rows), wrap(j, shape.cols))
	}

	name, shape, known := p.array(sub.Value)
	if name == "" {
		return "", false
	}
	if t, ok := sub.Index.(*pysrc.Tuple); ok && len(t.Elts) == 2 {
		i, ok1 := p.int(t.Elts[0])
		j, ok2 := p.int(t.Elts[1])
		if !ok1 || !ok2 {
			return "", false
		}
		if known {
			i, j = wrap(i, shape.rows), wrap(j, shape.cols)
		}
		return cellIndex(name, i, j)
	}
	i, ok := p.int(sub.Index)
	if !ok || !known || shape.twoD {
		return "", false
	}
	if shape.rows == 1 {
		return cellIndex(name, 0, wrap(i, shape.cols))
	}
	return cellIndex(name, wrap(i, shape.rows), 0)
}

func cellIndex(name string, row, col int) (string, bool) {
	if row < 0 || col < 0 {
		return "", false
	}
	return cellKey(name, row, col), true
}

func wrap(i, n int) int {
	if i < 0 {
		return i + n
	}
	return i
}

// array resolves e to an axes array name and its shape, if known.
func (p *FigureParser) array(e pysrc.Expr) (string, arrayShape, bool) {
	n, ok := e.(*pysrc.Name)
	if !ok {
		return "", arrayShape{}, false
	}
	name := p.resolve(n.ID)
	if shape, ok := p.arrays[name]; ok {
		return name, shape, true
	}
	return n.ID, arrayShape{}, false
}

func (p *FigureParser) processCall(call *pysrc.Call) {
	fn, ok := call.Func.(*pysrc.Attribute)
	if !ok {
		return
	}
	target, attr := fn.Value, fn.Attr

	switch attr {
	case "savefig":
		p.finalize(call)
		return
	case "suptitle":
		if s, ok := p.str(arg(call, 0)); ok {
			p.ensureFigure().title = s
		}
		return
	case "set_major_formatter":
		if f, ok := arg(call, 0).(*pysrc.Call); ok {
			if s, ok := p.str(arg(f, 0)); ok {
				p.ensureFigure().xTickFormat = s
			}
		}
		return
	}

	switch {
	case isName(target, "plt"):
		switch attr {
		case "figure":
			p.startPyplotFigure()
			return
		case "subplot", "gca", "axes", "twinx":
			p.callAxis(call)
			return
		case "sca":
			if a := arg(call, 0); a != nil {
				p.current = p.resolve(p.axisKey(a))
			}
			return
		case "title":
			attr = "set_title"
		case "ylabel":
			attr = "set_ylabel"
		case "xlabel":
			attr = "set_xlabel"
		}
	case p.isFigVar(target):
		if attr == "add_subplot" {
			p.callAxis(call)
		}
		return
	case attr == "plot" && (p.isFrame(target) || p.columnOf(target) != ""):
		p.framePlot(call, target)
		return
	case p.isFrame(target) || p.columnOf(target) != "":
		return
	}
	if !axisMethods[attr] {
		return
	}

	ax := p.axis(p.resolve(p.axisKey(target)))
	switch attr {
	case "plot":
		if s, ok := p.plotSeries(call); ok {
			s.Secondary = ax.secondary
			ax.series = append(ax.series, s)
		}
	case "legend":
		ax.legendLoc = "best"
		if loc := keyword(call, "loc"); loc != nil {
			if s, ok := p.str(loc); ok {
				ax.legendLoc = s
			} else if code, ok := p.int(loc); ok && legendCodes[int64(code)] != "" {
				ax.legendLoc = legendCodes[int64(code)]
			}
		}
	case "set_title":
		if s, ok := p.str(firstNonNil(arg(call, 0), keyword(call, "label"))); ok {
			ax.title = s
		}
	case "set_ylabel":
		if s, ok := p.str(firstNonNil(arg(call, 0), keyword(call, "ylabel"))); ok {
			ax.ylabel = s
		}
		if c, ok := p.str(firstNonNil(keyword(call, "color"), keyword(call, "c"))); ok {
			ax.ylabelColor = normalizeColor(c)
		}
	case "set_xlabel":
		if s, ok := p.str(firstNonNil(arg(call, 0), keyword(call, "xlabel"))); ok {
			ax.xlabel = s
			p.ensureFigure().xlabel = s
		}
	case "set":
		if s, ok := p.str(keyword(call, "title")); ok {
			ax.title = s
		}
		if s, ok := p.str(keyword(call, "ylabel")); ok {
			ax.ylabel = s
		}
		if s, ok := p.str(keyword(call, "xlabel")); ok {
			ax.xlabel = s
			p.ensureFigure().xlabel = s
		}
	case "grid":
		ax.grid = p.gridFlag(call)
	case "tick_params":
		axisName, _ := p.str(keyword(call, "axis"))
		color, ok := p.str(firstNonNil(keyword(call, "labelcolor"), keyword(call, "colors")))
		if ok && (axisName == "y" || axisName == "both") {
			ax.yaxisColor = normalizeColor(color)
		}
	}
}

// gridFlag reads grid(True), grid(visible=False) and grid(alpha=0.3);
// styling keywords alone switch the grid on.
func (p *FigureParser) gridFlag(call *pysrc.Call) *bool {
	on := true
	if a := arg(call, 0); a != nil {
		v, ok := pysrc.Truthy(a)
		if !ok {
			return nil
		}
		on = v
	} else if kw := firstNonNil(keyword(call, "visible"), keyword(call, "b")); kw != nil {
		v, ok := pysrc.Truthy(kw)
		if !ok {
			return nil
		}
		on = v
	}
	return &on
}

// plotSeries reads ax.plot(x, y, fmt, label=..., ...). With data= the
// positional arguments name columns.
func (p *FigureParser) plotSeries(call *pysrc.Call) (spec.Series, bool) {
	var args []pysrc.Expr
	for _, a := range call.Args {
		if _, starred := a.(*pysrc.Starred); !starred {
			args = append(args, a)
		}
	}
	data := keyword(call, "data")

	var format string
	if n := len(args); n >= 2 && (data == nil || n >= 3) {
		if s, ok := pysrc.StringValue(args[n-1]); ok {
			format = s
			args = args[:n-1]
		}
	}

	var y pysrc.Expr
	switch {
	case len(args) >= 2:
		y = args[1]
	case len(args) == 1:
		y = args[0]
	}

	s := spec.Series{}
	if y != nil {
		if data != nil {
			s.Column, _ = p.str(y)
		} else {
			s.Column = p.columnOf(y)
		}
	}
	s.Color, s.LineStyle = parseFormat(format)
	p.applyStyle(&s, call)
	return s, true
}

// applyStyle reads label, color, linestyle and alpha keywords.
func (p *FigureParser) applyStyle(s *spec.Series, call *pysrc.Call) {
	for _, kw := range call.Keywords {
		switch kw.Arg {
		case "label":
			if v, ok := p.str(kw.Value); ok {
				s.Label = v
			}
		case "color", "c":
			if v, ok := p.str(kw.Value); ok {
				s.Color = normalizeColor(v)
			}
		case "linestyle", "ls":
			if v, ok := p.str(kw.Value); ok {
				s.LineStyle = v
			}
		case "alpha":
			if v, ok := pysrc.FloatValue(kw.Value); ok {
				s.Alpha = &v
			}
		}
	}
	if s.LineStyle == "" {
		s.LineStyle = "-"
	}
}

// framePlot handles pandas plotting: df['col'].plot(ax=ax) and
// df.plot(y=[...], ax=ax, secondary_y=True).
func (p *FigureParser) framePlot(call *pysrc.Call, target pysrc.Expr) {
	key := p.pyplotAxis()
	if a := keyword(call, "ax"); a != nil {
		key = p.resolve(p.axisKey(a))
	}
	if v, ok := pysrc.Truthy(keyword(call, "secondary_y")); ok && v {
		key = strings.TrimSuffix(key, secondarySuffix) + secondarySuffix
	}

	var columns []string
	if col := p.columnOf(target); col != "" {
		columns = append(columns, col)
	} else {
		y := keyword(call, "y")
		if s, ok := p.str(y); ok {
			columns = append(columns, s)
		} else {
			for _, e := range p.iterate(y) {
				if s, ok := p.str(e); ok {
					columns = append(columns, s)
				}
			}
		}
	}
	if len(columns) == 0 {
		return
	}

	ax := p.axis(key)
	for _, col := range columns {
		s := spec.Series{Column: col, Secondary: ax.secondary}
		if c, ok := p.str(keyword(call, "style")); ok {
			s.Color, s.LineStyle = parseFormat(c)
		}
		p.applyStyle(&s, call)
		if len(columns) > 1 {
			s.Label = ""
		}
		ax.series = append(ax.series, s)
	}
}

// finalize emits the current figure for a savefig call. Without a constant
// file name nothing is emitted and the state is kept.
func (p *FigureParser) finalize(call *pysrc.Call) {
	name := firstNonNil(arg(call, 0), keyword(call, "fname"))
	outfile, ok := p.str(name)
	if !ok || outfile == "" {
		p.log.Warn("savefig without a constant file name, figure skipped", map[string]interface{}{
			"expr": pysrc.Source(name),
		})
		return
	}
	fig := p.buildFigure(outfile)
	p.figures = append(p.figures, fig)
	p.log.Debug("figure mined", map[string]interface{}{
		"outfile": fig.Outfile,
		"type":    fig.Type,
	})

	p.fig = nil
	p.resetAxes()
	p.varColumn = make(map[string]string)
}

func (p *FigureParser) processFor(f *pysrc.For) {
	names := targetNames([]pysrc.Expr{f.Target})
	if len(names) == 0 {
		return
	}
	items := p.iterate(f.Iter)
	if len(items) == 0 {
		p.log.Debug("loop over unrecognised iterable skipped", map[string]interface{}{
			"iter": pysrc.Source(f.Iter),
		})
		return
	}

	type binding struct {
		alias    string
		hasAlias bool
		value    pysrc.Expr
	}
	saved := make(map[string]binding, len(names))
	for _, n := range names {
		alias, ok := p.aliases[n]
		saved[n] = binding{alias: alias, hasAlias: ok, value: p.consts[n]}
	}

	for _, item := range items {
		p.bind(f.Target, item)
		p.processStmts(f.Body)
	}

	for n, b := range saved {
		if b.hasAlias {
			p.aliases[n] = b.alias
		} else {
			delete(p.aliases, n)
		}
		if b.value != nil {
			p.consts[n] = b.value
		} else {
			delete(p.consts, n)
		}
	}
}

func (p *FigureParser) bind(target, value pysrc.Expr) {
	switch t := target.(type) {
	case *pysrc.Name:
		delete(p.consts, t.ID)
		switch {
		case isLiteral(value):
			p.consts[t.ID] = value
		case p.columnOf(value) != "":
			p.varColumn[t.ID] = p.columnOf(value)
		default:
			p.aliases[t.ID] = p.resolve(p.axisKey(value))
		}
	case *pysrc.Tuple:
		if v, ok := value.(*pysrc.Tuple); ok && len(v.Elts) == len(t.Elts) {
			for i := range t.Elts {
				p.bind(t.Elts[i], v.Elts[i])
			}
		}
	}
}

// iterate expands the iterables a loop can be unrolled over: literals,
// named sequences, axes arrays (.flat, flatten(), ravel()), range, zip and
// enumerate.
func (p *FigureParser) iterate(e pysrc.Expr) []pysrc.Expr {
	switch n := e.(type) {
	case *pysrc.List:
		return n.Elts
	case *pysrc.Tuple:
		return n.Elts
	case *pysrc.Name:
		if elts, ok := p.seqs[n.ID]; ok {
			return elts
		}
		if name, shape, ok := p.array(n); ok && !shape.twoD {
			return arrayCells(name, shape)
		}
	case *pysrc.Attribute:
		if n.Attr == "flat" {
			if name, shape, ok := p.array(n.Value); ok {
				return arrayCells(name, shape)
			}
		}
	case *pysrc.Call:
		return p.iterateCall(n)
	}
	return nil
}

func (p *FigureParser) iterateCall(call *pysrc.Call) []pysrc.Expr {
	switch fn := call.Func.(type) {
	case *pysrc.Attribute:
		if fn.Attr == "flatten" || fn.Attr == "ravel" {
			if name, shape, ok := p.array(fn.Value); ok {
				return arrayCells(name, shape)
			}
		}
	case *pysrc.Name:
		switch fn.ID {
		case "list", "tuple":
			return p.iterate(arg(call, 0))
		case "range":
			return p.rangeItems(call)
		case "enumerate":
			start, _ := p.int(firstNonNil(arg(call, 1), keyword(call, "start")))
			var out []pysrc.Expr
			for i, item := range p.iterate(arg(call, 0)) {
				out = append(out, &pysrc.Tuple{Elts: []pysrc.Expr{intConst(start + i), item}})
			}
			return out
		case "zip":
			var lists [][]pysrc.Expr
			shortest := -1
			for _, a := range call.Args {
				items := p.iterate(a)
				if len(items) == 0 {
					return nil
				}
				if shortest < 0 || len(items) < shortest {
					shortest = len(items)
				}
				lists = append(lists, items)
			}
			var out []pysrc.Expr
			for i := 0; i < shortest; i++ {
				tuple := &pysrc.Tuple{}
				for _, items := range lists {
					tuple.Elts = append(tuple.Elts, items[i])
				}
				out = append(out, tuple)
			}
			return out
		}
	}
	return nil
}

func (p *FigureParser) rangeItems(call *pysrc.Call) []pysrc.Expr {
	var nums []int
	for _, a := range call.Args {
		v, ok := p.int(a)
		if !ok {
			return nil
		}
		nums = append(nums, v)
	}
	start, stop, step := 0, 0, 1
	switch len(nums) {
	case 1:
		stop = nums[0]
	case 2:
		start, stop = nums[0], nums[1]
	case 3:
		start, stop, step = nums[0], nums[1], nums[2]
	default:
		return nil
	}
	if step == 0 {
		return nil
	}
	var out []pysrc.Expr
	for i := start; (step > 0 && i < stop) || (step < 0 && i > stop); i += step {
		if len(out) >= loopLimit {
			break
		}
		out = append(out, intConst(i))
	}
	return out
}

func arrayCells(name string, shape arrayShape) []pysrc.Expr {
	var out []pysrc.Expr
	for r := 0; r < shape.rows; r++ {
		for c := 0; c < shape.cols; c++ {
			out = append(out, &pysrc.Subscript{
				Value: &pysrc.Name{ID: name},
				Index: &pysrc.Tuple{Elts: []pysrc.Expr{intConst(r), intConst(c)}},
			})
		}
	}
	return out
}

// columnOf resolves an expression to the dataframe column it reads:
// df['x'], df.x, a variable bound to one, or a method chain rooted at one
// such as df['x'].rolling(3).mean().
func (p *FigureParser) columnOf(e pysrc.Expr) string {
	switch n := e.(type) {
	case *pysrc.Name:
		return p.varColumn[n.ID]
	case *pysrc.Subscript:
		if p.isFrame(n.Value) {
			col, _ := p.str(n.Index)
			return col
		}
		return p.columnOf(n.Value)
	case *pysrc.Attribute:
		if p.isFrame(n.Value) {
			if frameAttrs[n.Attr] {
				return ""
			}
			return n.Attr
		}
		return p.columnOf(n.Value)
	case *pysrc.Call:
		if fn, ok := n.Func.(*pysrc.Attribute); ok && !p.isFrame(fn.Value) {
			return p.columnOf(fn.Value)
		}
	}
	return ""
}

func (p *FigureParser) isFrame(e pysrc.Expr) bool {
	n, ok := e.(*pysrc.Name)
	return ok && p.dataframes[n.ID]
}

func (p *FigureParser) isFigVar(e pysrc.Expr) bool {
	n, ok := e.(*pysrc.Name)
	return ok && p.figVars[n.ID]
}

// str evaluates a string constant, a name bound to one, or an element of
// a named literal sequence.
func (p *FigureParser) str(e pysrc.Expr) (string, bool) {
	switch n := e.(type) {
	case *pysrc.Constant:
		return pysrc.StringValue(n)
	case *pysrc.Name:
		if v, ok := p.consts[n.ID]; ok {
			return pysrc.StringValue(v)
		}
	case *pysrc.Subscript:
		if item, ok := p.seqItem(n); ok {
			return p.str(item)
		}
	}
	return "", false
}

func (p *FigureParser) int(e pysrc.Expr) (int, bool) {
	switch n := e.(type) {
	case *pysrc.Name:
		if v, ok := p.consts[n.ID]; ok {
			i, ok := pysrc.IntValue(v)
			return int(i), ok
		}
		return 0, false
	case *pysrc.Subscript:
		if item, ok := p.seqItem(n); ok {
			return p.int(item)
		}
		return 0, false
	case nil:
		return 0, false
	}
	v, ok := pysrc.IntValue(e)
	return int(v), ok
}

func (p *FigureParser) seqItem(sub *pysrc.Subscript) (pysrc.Expr, bool) {
	name, ok := sub.Value.(*pysrc.Name)
	if !ok {
		return nil, false
	}
	elts, ok := p.seqs[name.ID]
	if !ok {
		return nil, false
	}
	i, ok := p.int(sub.Index)
	if !ok {
		return nil, false
	}
	i = wrap(i, len(elts))
	if i < 0 || i >= len(elts) {
		return nil, false
	}
	return elts[i], true
}

func targetNames(targets []pysrc.Expr) []string {
	var names []string
	for _, t := range targets {
		switch n := t.(type) {
		case *pysrc.Name:
			names = append(names, n.ID)
		case *pysrc.Tuple:
			names = append(names, targetNames(n.Elts)...)
		case *pysrc.List:
			names = append(names, targetNames(n.Elts)...)
		}
	}
	return names
}

func isName(e pysrc.Expr, id string) bool {
	n, ok := e.(*pysrc.Name)
	return ok && n.ID == id
}

func isLiteral(e pysrc.Expr) bool {
	c, ok := e.(*pysrc.Constant)
	return ok && (c.Kind == pysrc.ConstString || c.Kind == pysrc.ConstInt) && !c.FString
}

func intConst(v int) *pysrc.Constant {
	return &pysrc.Constant{Kind: pysrc.ConstInt, Int: int64(v), Text: strconv.Itoa(v)}
}

func arg(call *pysrc.Call, i int) pysrc.Expr {
	if i < len(call.Args) {
		return call.Args[i]
	}
	return nil
}

func keyword(call *pysrc.Call, name string) pysrc.Expr {
	for _, kw := range call.Keywords {
		if kw.Arg == name {
			return kw.Value
		}
	}
	return nil
}

func firstNonNil(exprs ...pysrc.Expr) pysrc.Expr {
	for _, e := range exprs {
		if e != nil {
			return e
		}
	}
	return nil
}
