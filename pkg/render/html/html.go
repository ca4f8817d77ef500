// Package html renders a scene as a self-contained interactive map
// document. Panel layers become Leaflet layers with pan and zoom; legend,
// info block and chrome are overlay controls.
package html

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"text/template"
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/elfabitto/gis-saas-project/pkg/errors"
	"github.com/elfabitto/gis-saas-project/pkg/geo"
	"github.com/elfabitto/gis-saas-project/pkg/scene"
)

// Options carries the interactive backend's per-render parameters.
type Options struct {
	Timestamp time.Time
}

// tileURLs maps the theme's basemap identifier to a tile source.
var tileURLs = map[string]string{
	"osm":            "https://tile.openstreetmap.org/{z}/{x}/{y}.png",
	"carto-positron": "https://basemaps.cartocdn.com/light_all/{z}/{x}/{y}.png",
}

type panelData struct {
	Role      string
	Label     string
	Bounds    string // Leaflet LatLngBounds JSON
	Highlight string // highlight rectangle bounds, empty when absent
}

type pageData struct {
	Scene     *scene.Scene
	Generated string
	TileURL   string
	GeoJSON   string
	Main      panelData
	Insets    []panelData
	LogoURI   string
}

// Render emits the interactive document.
func Render(s *scene.Scene, opts Options) ([]byte, error) {
	if s == nil || len(s.Panels) == 0 {
		return nil, errors.New(errors.ErrCodeRender, "nothing to render").At(errors.StageRender)
	}

	fc := geojson.NewFeatureCollection()
	for _, f := range s.Panels[0].Features {
		gf := geojson.NewFeature(f.Geometry)
		gf.Properties = f.Properties
		fc.Append(gf)
	}
	raw, err := fc.MarshalJSON()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "encoding features").At(errors.StageRender)
	}

	tile, ok := tileURLs[s.Theme.Basemap]
	if !ok {
		tile = tileURLs["osm"]
	}

	data := pageData{
		Scene:     s,
		Generated: opts.Timestamp.UTC().Format(time.RFC3339),
		TileURL:   tile,
		GeoJSON:   string(raw),
		Main:      toPanelData(s.Panels[0]),
	}
	for _, p := range s.Panels[1:] {
		data.Insets = append(data.Insets, toPanelData(p))
	}
	if len(s.Logo) > 0 {
		data.LogoURI = "data:image/png;base64," + base64.StdEncoding.EncodeToString(s.Logo)
	}

	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, data); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "rendering interactive document").
			At(errors.StageRender)
	}
	return buf.Bytes(), nil
}

func toPanelData(p scene.Panel) panelData {
	d := panelData{
		Role:   string(p.Role),
		Label:  p.Label,
		Bounds: boundsJSON(p.Window),
	}
	for _, dec := range p.Decorations {
		if dec.Kind == scene.DecorationHighlight {
			d.Highlight = boundsJSON(dec.Window)
		}
	}
	return d
}

// boundsJSON encodes a window as [[south, west], [north, east]]. Shifted
// longitudes are kept as-is; Leaflet accepts longitudes beyond 180.
func boundsJSON(w geo.Window) string {
	b, _ := json.Marshal([][2]float64{
		{w.MinLat, w.MinLon},
		{w.MaxLat, w.MaxLon},
	})
	return string(b)
}

var pageTmpl = template.Must(template.New("page").Funcs(template.FuncMap{
	// Stacks the inset panels up from the bottom-right corner.
	"insetBottom": func(i int) int { return 24 + i*(160+12) },
}).Parse(pageHTML))

const pageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="generator" content="gismap">
<meta name="date" content="{{.Generated}}">
<title>{{.Scene.Title}}</title>
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<style>
  html, body { margin: 0; height: 100%; font-family: Helvetica, Arial, sans-serif; }
  #map { position: absolute; inset: 0; background: {{.Scene.Theme.Background}}; }
  .inset { position: absolute; right: 12px; width: 220px; height: 160px;
           border: {{.Scene.Theme.BorderWeight}}px solid {{.Scene.Theme.Border}};
           background: {{.Scene.Theme.Background}}; z-index: 900; }
  .inset-label { position: absolute; left: 2px; top: 2px; z-index: 950;
                 font-size: 10px; color: {{.Scene.Theme.TextSecondary}};
                 background: rgba(255,255,255,0.8); padding: 1px 4px; }
  #title-block { position: absolute; top: 12px; left: 50%; transform: translateX(-50%);
                 z-index: 950; background: {{.Scene.Theme.Surface}}; padding: 8px 24px;
                 border: 1px solid {{.Scene.Theme.Border}}; text-align: center; }
  #title-block h1 { margin: 0; font-size: {{.Scene.Theme.TitleSize}}px; color: {{.Scene.Theme.TextPrimary}}; }
  #title-block h2 { margin: 0; font-size: {{.Scene.Theme.SubtitleSize}}px; font-weight: normal;
                    color: {{.Scene.Theme.TextSecondary}}; }
  .box { position: absolute; z-index: 950; background: {{.Scene.Theme.Surface}};
         border: 1px solid {{.Scene.Theme.Border}}; padding: 8px 12px;
         font-size: {{.Scene.Theme.BodySize}}px; color: {{.Scene.Theme.TextPrimary}}; }
  #legend { left: 12px; bottom: 24px; }
  #legend .swatch { display: inline-block; width: 14px; height: 14px;
                    margin-right: 6px; vertical-align: middle; }
  #info { left: 12px; top: 12px; }
  #info dt { font-weight: bold; }
  #info dd { margin: 0 0 4px 0; }
  #north { position: absolute; right: 12px; top: 12px; z-index: 950;
           font-size: 22px; font-weight: bold; color: {{.Scene.Theme.TextPrimary}};
           background: {{.Scene.Theme.Surface}}; border: 1px solid {{.Scene.Theme.Border}};
           padding: 2px 10px; }
  #logo { position: absolute; left: 12px; top: 12px; z-index: 960; max-height: 48px; }
</style>
</head>
<body>
<div id="map"></div>
{{if .Scene.Title}}<div id="title-block"><h1>{{.Scene.Title}}</h1>{{if .Scene.Subtitle}}<h2>{{.Scene.Subtitle}}</h2>{{end}}</div>{{end}}
{{if .Scene.ShowNorthArrow}}<div id="north">&#8593;<br>N</div>{{end}}
{{if .LogoURI}}<img id="logo" src="{{.LogoURI}}" alt="logo">{{end}}
<div id="info" class="box"><dl>
{{range .Scene.Info}}<dt>{{.Label}}</dt><dd>{{.Value}}</dd>
{{end}}</dl></div>
{{if .Scene.Legend}}<div id="legend" class="box">
{{range .Scene.Legend}}<div><span class="swatch" style="background:{{.Fill}};border:1px solid {{.Stroke}}"></span>{{.Label}}</div>
{{end}}</div>{{end}}
{{range $i, $p := .Insets}}<div class="inset" id="inset-{{$i}}" style="bottom: {{insetBottom $i}}px"><span class="inset-label">{{$p.Label}}</span></div>
{{end}}
<script>
var data = {{.GeoJSON}};
var featureStyle = {
  color: {{printf "%q" .Scene.Theme.Secondary}},
  fillColor: {{printf "%q" .Scene.Theme.Primary}},
  weight: 2,
  fillOpacity: 0.6
};

var map = L.map('map');
L.tileLayer({{printf "%q" .TileURL}}, {maxZoom: 19, attribution: '&copy; OpenStreetMap contributors'}).addTo(map);
var layer = L.geoJSON(data, {
  style: featureStyle,
  pointToLayer: function (f, latlng) { return L.circleMarker(latlng, featureStyle); }
}).addTo(map);
map.fitBounds({{.Main.Bounds}});
{{if .Scene.ShowScaleBar}}L.control.scale({imperial: false}).addTo(map);{{end}}

{{range $i, $p := .Insets}}
(function () {
  var inset = L.map('inset-{{$i}}', {
    zoomControl: false, dragging: false, scrollWheelZoom: false,
    doubleClickZoom: false, boxZoom: false, keyboard: false,
    attributionControl: false, touchZoom: false
  });
  L.tileLayer({{printf "%q" $.TileURL}}, {maxZoom: 19}).addTo(inset);
  L.geoJSON(data, {
    style: featureStyle,
    pointToLayer: function (f, latlng) { return L.circleMarker(latlng, featureStyle); }
  }).addTo(inset);
  {{if $p.Highlight}}L.rectangle({{$p.Highlight}}, {color: {{printf "%q" $.Scene.Theme.Accent}}, weight: 2, fill: false}).addTo(inset);{{end}}
  inset.fitBounds({{$p.Bounds}});
})();
{{end}}
</script>
</body>
</html>
`
