// Package marker turns clusters into drawable map markers.
package marker

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"text/template"

	"go.uber.org/zap"

	"photo-map/clustering"
	"photo-map/model"
	"photo-map/report"
)

// FallbackIcon is drawn when a marker's own icon cannot be rendered.
const FallbackIcon = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 24"><circle cx="12" cy="12" r="10" fill="#9e9e9e"/></svg>`

// DefaultIcons renders the "cluster" and "single" badges.
var DefaultIcons = template.Must(template.New("icons").Parse(`
{{- define "cluster" -}}
<svg xmlns="http://www.w3.org/2000/svg" width="{{.Size}}" height="{{.Size}}" viewBox="0 0 {{.Size}} {{.Size}}">
<circle cx="{{.Half}}" cy="{{.Half}}" r="{{.Half}}" fill="{{.Color}}" fill-opacity="0.35"/>
<circle cx="{{.Half}}" cy="{{.Half}}" r="{{.Inner}}" fill="{{.Color}}"/>
<text x="50%" y="50%" dominant-baseline="central" text-anchor="middle" font-size="{{.FontSize}}" fill="#fff">{{.Label}}</text>
</svg>
{{- end -}}
{{- define "single" -}}
<svg xmlns="http://www.w3.org/2000/svg" width="{{.Size}}" height="{{.Size}}" viewBox="0 0 {{.Size}} {{.Size}}">
<circle cx="{{.Half}}" cy="{{.Half}}" r="{{.Inner}}" fill="{{.Color}}" stroke="#fff" stroke-width="2"/>
</svg>
{{- end -}}`))

type iconData struct {
	Size     int
	Half     float64
	Inner    float64
	FontSize int
	Color    string
	Label    string
}

// Builder produces markers for clusters at a zoom level.
type Builder struct {
	Config   clustering.Config
	Icons    *template.Template
	Reporter report.Reporter
	Log      *zap.Logger
}

func NewBuilder(cfg clustering.Config, reporter report.Reporter, logger *zap.Logger) *Builder {
	return &Builder{Config: cfg, Icons: DefaultIcons, Reporter: reporter, Log: logger}
}

// Build returns one marker per cluster, in cluster order. A marker whose
// icon fails to render gets FallbackIcon; a cluster without a usable
// center is reported and left out.
func (b *Builder) Build(clusters []model.Cluster, index *clustering.PhotoIndex, zoom float64) []model.Marker {
	markers := make([]model.Marker, 0, len(clusters))
	for _, c := range clusters {
		m, err := b.build(c, index, zoom)
		if err == nil {
			markers = append(markers, m)
			continue
		}
		err = fmt.Errorf("marker %s: %w", c.ID, err)
		b.reporter().Report(report.KindRender, err)
		if !validCenter(c.CenterLat, c.CenterLng) {
			b.logger().Warn("dropping marker", zap.Error(err))
			continue
		}
		b.logger().Warn("using fallback marker icon", zap.Error(err))
		m.IconSVG = FallbackIcon
		m.Fallback = true
		markers = append(markers, m)
	}
	return markers
}

func (b *Builder) build(c model.Cluster, index *clustering.PhotoIndex, zoom float64) (model.Marker, error) {
	size := clustering.MarkerSizeForZoom(zoom, c.IsCluster, b.Config)
	m := model.Marker{
		ClusterID:  c.ID,
		Lat:        c.CenterLat,
		Lng:        c.CenterLng,
		SizePx:     size,
		IsCluster:  c.IsCluster,
		PhotoCount: c.PhotoCount,
		Label:      label(c),
	}
	if index != nil {
		if p := clustering.RepresentativePhoto(index.InCluster(c)); p != nil {
			m.ThumbnailURL = p.ThumbnailURL
			if m.ThumbnailURL == "" {
				m.ThumbnailURL = p.ImageURL
			}
		}
	}
	if !validCenter(c.CenterLat, c.CenterLng) {
		return m, fmt.Errorf("invalid center %v,%v", c.CenterLat, c.CenterLng)
	}

	icon, err := b.renderIcon(c, size, m.Label)
	if err != nil {
		return m, err
	}
	m.IconSVG = icon
	return m, nil
}

func (b *Builder) renderIcon(c model.Cluster, size int, lbl string) (string, error) {
	tmpl := b.Icons
	if tmpl == nil {
		tmpl = DefaultIcons
	}
	name := "single"
	if c.IsCluster {
		name = "cluster"
	}
	data := iconData{
		Size:     size,
		Half:     float64(size) / 2,
		Inner:    float64(size) / 2 * 0.75,
		FontSize: max(size/3, 8),
		Color:    colorFor(c.PhotoCount),
		Label:    lbl,
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func label(c model.Cluster) string {
	if c.IsCluster {
		return strconv.Itoa(c.PhotoCount)
	}
	if len(c.MemberAreas) > 0 {
		return c.MemberAreas[0].Name
	}
	return c.ID
}

func colorFor(count int) string {
	switch {
	case count < 10:
		return "#3b82f6"
	case count < 50:
		return "#f59e0b"
	default:
		return "#ef4444"
	}
}

func validCenter(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

func (b *Builder) reporter() report.Reporter {
	if b.Reporter == nil {
		return report.Discard
	}
	return b.Reporter
}

func (b *Builder) logger() *zap.Logger {
	if b.Log == nil {
		return zap.NewNop()
	}
	return b.Log
}
