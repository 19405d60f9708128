package view

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/dreschagin/release-confidence/internal/application/dto"
	"github.com/dreschagin/release-confidence/internal/domain/entity"
)

// DashboardData данные главной страницы
type DashboardData struct {
	Owner  string
	Latest *dto.LatestReleaseResponse
}

// Dashboard рендерит страницу последнего релиза владельца
func Dashboard(data DashboardData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}

		p.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		p.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		p.raw(`<title>Release Confidence</title>`)
		p.raw(`<link rel="stylesheet" href="/static/css/style.css"></head>`)
		p.raw(`<body data-owner="`)
		p.text(data.Owner)
		p.raw(`"><header><h1>Release Confidence</h1>`)
		if data.Owner != "" {
			p.raw(`<span class="owner">`)
			p.text(data.Owner)
			p.raw(`</span>`)
		}
		p.raw(`</header><main id="release">`)

		switch {
		case data.Owner == "":
			p.raw(`<p class="empty">Pass ?owner= to see the latest release.</p>`)
		case data.Latest == nil || data.Latest.Release == nil:
			p.raw(`<p class="empty">No releases yet.</p>`)
		default:
			renderRelease(p, data.Latest)
		}

		p.raw(`</main><script src="/static/js/websocket.js" defer></script></body></html>`)
		return p.err
	})
}

func renderRelease(p *printer, latest *dto.LatestReleaseResponse) {
	release := latest.Release
	metrics := latest.Metrics

	p.raw(`<section class="release"><h2>`)
	if release.FullName != "" {
		p.text(release.FullName + " ")
	}
	p.text(release.ReleaseNumber)
	p.raw(`</h2>`)

	if metrics != nil {
		p.raw(`<div class="metrics">`)
		card(p, "Confidence", formatPercent(metrics.ReleaseConfidence), "confidence")
		card(p, "Coverage", formatPercent(metrics.TestCoverage), "coverage")
		card(p, "Risk", metrics.RiskLevel.String(), "risk risk-"+metrics.RiskLevel.String())
		card(p, "Time to ship", metrics.TimeToShip, "tts")
		card(p, "Pass rate", formatPercent(metrics.PassRate), "pass-rate")
		card(p, "Failed tests", strconv.Itoa(metrics.FailedTests)+" / "+strconv.Itoa(metrics.TotalTests), "failed")
		p.raw(`</div>`)
	}

	renderRisks(p, latest.Risks)
	p.raw(`</section>`)
}

func renderRisks(p *printer, risks []entity.RiskItem) {
	if len(risks) == 0 {
		p.raw(`<p class="no-risks">No risks detected.</p>`)
		return
	}

	p.raw(`<ul class="risks">`)
	for _, risk := range risks {
		p.raw(`<li class="risk-item" data-severity="`)
		p.text(strconv.Itoa(risk.Severity))
		p.raw(`"><strong>`)
		p.text(risk.RiskName)
		p.raw(`</strong> <span>`)
		p.text(risk.Description)
		p.raw(`</span>`)
		if risk.Recommendation != "" {
			p.raw(`<em>`)
			p.text(risk.Recommendation)
			p.raw(`</em>`)
		}
		p.raw(`</li>`)
	}
	p.raw(`</ul>`)
}

func card(p *printer, label, value, class string) {
	p.raw(`<div class="card `)
	p.text(class)
	p.raw(`"><span class="label">`)
	p.text(label)
	p.raw(`</span><span class="value">`)
	p.text(value)
	p.raw(`</span></div>`)
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

// printer запоминает первую ошибку записи
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) raw(s string) {
	if p.err != nil {
		return
	}
	_, p.err = io.WriteString(p.w, s)
}

func (p *printer) text(s string) {
	p.raw(templ.EscapeString(s))
}
