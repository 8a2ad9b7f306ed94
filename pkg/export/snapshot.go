package export

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.sr.ht/~sbinet/gg"
	"github.com/ajstarks/svgo"
	"golang.org/x/image/font/basicfont"

	"github.com/vanderheijden86/rerungrid/pkg/grid"
	"github.com/vanderheijden86/rerungrid/pkg/layout"
	"github.com/vanderheijden86/rerungrid/pkg/metrics"
	"github.com/vanderheijden86/rerungrid/pkg/selection"
)

// Grid is the engine surface a snapshot needs.
type Grid interface {
	WorkflowID() string
	Rows() []layout.Row
	RowCells(nodeID string) []grid.CellView
	Dates() []time.Time
	Axis() (layout.Axis, error)
	Stats() grid.Stats
}

// SnapshotOptions controls grid snapshot export behaviour.
type SnapshotOptions struct {
	Path   string // Output path; format inferred from extension when Format empty
	Format string // "svg" or "png" (case-insensitive)
	Title  string
	Grid   Grid
}

// SaveSnapshot renders the visible rows against the date axis as SVG or PNG.
func SaveSnapshot(opts SnapshotOptions) error {
	defer metrics.Timer(metrics.ExportWrite)()

	if opts.Grid == nil {
		return fmt.Errorf("grid is required for snapshot export")
	}

	format := strings.ToLower(strings.TrimPrefix(opts.Format, "."))
	if format == "" {
		switch strings.ToLower(filepath.Ext(opts.Path)) {
		case ".svg":
			format = "svg"
		case ".png":
			format = "png"
		default:
			format = "svg"
			if opts.Path != "" && filepath.Ext(opts.Path) == "" {
				opts.Path = opts.Path + ".svg"
			}
		}
	}
	if format != "svg" && format != "png" {
		return fmt.Errorf("unsupported format %q (want svg or png)", format)
	}
	if opts.Path == "" {
		return fmt.Errorf("output path is required")
	}

	sl, err := buildSnapshotLayout(opts)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	switch format {
	case "svg":
		file, err := os.Create(opts.Path)
		if err != nil {
			return err
		}
		if err := renderSnapshotSVG(file, sl); err != nil {
			file.Close()
			return err
		}
		return file.Close()
	default:
		return renderSnapshotPNG(sl).SavePNG(opts.Path)
	}
}

// --- layout computation ----------------------------------------------------

const (
	snapPadding   = 24.0
	snapHeader    = 96.0
	snapLabelW    = 260.0
	snapRowH      = 22.0
	snapIndent    = 14.0
	snapCellSize  = 12.0
	snapMinPlotW  = 420.0
	snapPerDateW  = 28.0
	snapDateLabel = 64.0 // minimum gap between date labels
)

type snapCell struct {
	X       float64
	Kind    selection.Kind
	Checked bool
}

type snapRow struct {
	Y     float64
	Depth int
	Label string
	Group bool
	Open  bool
	Cells []snapCell
}

type snapTick struct {
	X     float64
	Label string
}

type snapshotLayout struct {
	Width, Height int
	PlotX, PlotW  float64
	Title         string
	Subtitle      string
	Rows          []snapRow
	Ticks         []snapTick
}

func buildSnapshotLayout(opts SnapshotOptions) (snapshotLayout, error) {
	g := opts.Grid
	axis, err := g.Axis()
	if err != nil {
		return snapshotLayout{}, err
	}
	dates := g.Dates()

	plotW := max(snapMinPlotW, float64(len(dates))*snapPerDateW)
	plotX := snapPadding + snapLabelW
	xFor := func(t time.Time) float64 {
		f := max(0, min(1, axis.Fraction(t)))
		return plotX + f*plotW
	}

	title := opts.Title
	if strings.TrimSpace(title) == "" {
		title = "Rerun selection: " + g.WorkflowID()
	}
	stats := g.Stats()

	sl := snapshotLayout{
		PlotX: plotX,
		PlotW: plotW,
		Title: title,
		Subtitle: fmt.Sprintf("%s .. %s  nodes: %d  cells: %d  excluded: %d",
			axis.Min.Format(time.DateOnly), axis.Max.Format(time.DateOnly),
			stats.Nodes, stats.Cells, stats.Excluded),
	}

	lastTick := -snapDateLabel
	for _, d := range dates {
		x := xFor(d)
		if x-lastTick < snapDateLabel {
			continue
		}
		sl.Ticks = append(sl.Ticks, snapTick{X: x, Label: d.Format("01-02")})
		lastTick = x
	}

	for i, r := range g.Rows() {
		row := snapRow{
			Y:     snapPadding + snapHeader + float64(i)*snapRowH,
			Depth: r.Depth,
			Label: truncate(r.Node.Label, 32-r.Depth),
			Group: r.IsGroup,
			Open:  r.Expanded,
		}
		for _, c := range g.RowCells(r.Node.ID) {
			row.Cells = append(row.Cells, snapCell{X: xFor(c.Date), Kind: c.Kind, Checked: c.Checked})
		}
		sl.Rows = append(sl.Rows, row)
	}

	sl.Width = int(plotX + plotW + snapPadding*2)
	sl.Height = int(snapPadding*2 + snapHeader + float64(len(sl.Rows))*snapRowH)
	return sl, nil
}

// --- rendering -------------------------------------------------------------

var (
	colorBackdrop  = color.RGBA{0xf9, 0xfa, 0xfb, 0xff}
	colorHeaderBG  = color.RGBA{0xf3, 0xf4, 0xf6, 0xff}
	colorText      = color.RGBA{0x11, 0x11, 0x11, 0xff}
	colorSubtle    = color.RGBA{0x66, 0x66, 0x66, 0xff}
	colorGridLine  = color.RGBA{0xe0, 0xe3, 0xe8, 0xff}
	colorChecked   = color.RGBA{0x2e, 0x7d, 0x32, 0xff}
	colorUnchecked = color.RGBA{0xff, 0xff, 0xff, 0xff}
	colorGroup     = color.RGBA{0x6b, 0x80, 0xbf, 0xff}
	colorStroke    = color.RGBA{0x22, 0x22, 0x22, 0xff}
)

func cellFill(c snapCell) color.RGBA {
	switch {
	case !c.Checked:
		return colorUnchecked
	case c.Kind == selection.Group:
		return colorGroup
	default:
		return colorChecked
	}
}

func rowPrefix(r snapRow) string {
	if !r.Group {
		return "  "
	}
	if r.Open {
		return "v "
	}
	return "> "
}

func renderSnapshotPNG(sl snapshotLayout) *gg.Context {
	dc := gg.NewContext(sl.Width, sl.Height)
	dc.SetColor(colorBackdrop)
	dc.Clear()

	dc.SetColor(colorHeaderBG)
	dc.DrawRoundedRectangle(12, 12, float64(sl.Width)-24, snapHeader-16, 10)
	dc.Fill()

	dc.SetFontFace(basicfont.Face7x13)
	dc.SetColor(colorText)
	dc.DrawStringAnchored(sl.Title, snapPadding+8, 36, 0, 0.5)
	dc.SetColor(colorSubtle)
	dc.DrawStringAnchored(sl.Subtitle, snapPadding+8, 56, 0, 0.5)
	for _, tk := range sl.Ticks {
		dc.DrawStringAnchored(tk.Label, tk.X, snapHeader+4, 0.5, 0.5)
	}

	dc.SetLineWidth(1)
	for _, r := range sl.Rows {
		dc.SetColor(colorGridLine)
		dc.DrawLine(snapPadding, r.Y+snapRowH, sl.PlotX+sl.PlotW, r.Y+snapRowH)
		dc.Stroke()

		dc.SetColor(colorText)
		x := snapPadding + float64(r.Depth)*snapIndent
		dc.DrawStringAnchored(rowPrefix(r)+r.Label, x, r.Y+snapRowH/2, 0, 0.5)

		for _, c := range r.Cells {
			cx := c.X - snapCellSize/2
			cy := r.Y + (snapRowH-snapCellSize)/2
			dc.SetColor(cellFill(c))
			dc.DrawRectangle(cx, cy, snapCellSize, snapCellSize)
			dc.Fill()
			dc.SetColor(colorStroke)
			dc.DrawRectangle(cx, cy, snapCellSize, snapCellSize)
			dc.Stroke()
		}
	}
	return dc
}

func renderSnapshotSVG(w io.Writer, sl snapshotLayout) error {
	canvas := svg.New(w)
	canvas.Start(sl.Width, sl.Height)
	canvas.Rect(0, 0, sl.Width, sl.Height, fmt.Sprintf("fill:%s", css(colorBackdrop)))
	canvas.Roundrect(12, 12, sl.Width-24, int(snapHeader-16), 10, 10, fmt.Sprintf("fill:%s", css(colorHeaderBG)))

	canvas.Text(int(snapPadding+8), 40, sl.Title, fmt.Sprintf("fill:%s;font-size:16px;font-family:monospace;font-weight:bold", css(colorText)))
	canvas.Text(int(snapPadding+8), 60, sl.Subtitle, fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", css(colorSubtle)))
	for _, tk := range sl.Ticks {
		canvas.Text(int(tk.X), int(snapHeader+8), tk.Label,
			fmt.Sprintf("fill:%s;font-size:11px;font-family:monospace;text-anchor:middle", css(colorSubtle)))
	}

	for _, r := range sl.Rows {
		y := int(r.Y)
		canvas.Line(int(snapPadding), y+int(snapRowH), int(sl.PlotX+sl.PlotW), y+int(snapRowH),
			fmt.Sprintf("stroke:%s;stroke-width:1", css(colorGridLine)))
		x := int(snapPadding + float64(r.Depth)*snapIndent)
		weight := "normal"
		if r.Group {
			weight = "bold"
		}
		canvas.Text(x, y+15, rowPrefix(r)+r.Label,
			fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace;font-weight:%s", css(colorText), weight))

		for _, c := range r.Cells {
			cx := int(c.X - snapCellSize/2)
			cy := y + int((snapRowH-snapCellSize)/2)
			class := "unchecked"
			if c.Checked {
				class = "checked"
			}
			canvas.Rect(cx, cy, int(snapCellSize), int(snapCellSize),
				fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1", css(cellFill(c)), css(colorStroke)),
				fmt.Sprintf(`class="cell %s %s"`, c.Kind, class))
		}
	}

	canvas.End()
	return nil
}

// --- helpers ---------------------------------------------------------------

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
