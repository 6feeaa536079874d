package main

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"pasal/internal/payflow"
	"pasal/internal/session"
)

// How long the notify page shows its toast before moving on. The redirect is
// issued by the page itself so the outcome is always decided before the
// browser navigates anywhere.
const notifyRedirectDelay = 1200 * time.Millisecond

var reasonMessages = map[string]string{
	payflow.ReasonMalformedCallback: "The payment gateway sent back an incomplete response.",
	payflow.ReasonNoPendingPayment:  "We could not find a payment matching this transaction. It may have expired.",
	payflow.ReasonVerifyRejected:    "The payment was not completed.",
	payflow.ReasonVerifyError:       "We could not confirm the payment right now. If you were charged, it will be reconciled automatically.",
}

//	@Summary		Payment gateway callback
//	@Description	Resolves a gateway redirect into a final outcome, then forwards the browser to the matching terminal page
//	@Tags			payment
//	@Produce		html
//	@Success		200
//	@Router			/payment/callback/esewa/success [get]
func (app *application) paymentCallbackHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	outcome := app.reconciler.Resolve(ctx, r.URL.Path, r.URL.Query())

	app.metrics.VerificationsTotal.WithLabelValues(string(outcome.Gateway), string(outcome.State)).Inc()

	if outcome.State == payflow.StateSuccess {
		target := "/payment/" + string(outcome.Gateway) + "/success"
		if outcome.PaymentRequestID > 0 {
			target += "?payment_request_id=" + strconv.FormatInt(outcome.PaymentRequestID, 10)
		}
		app.renderNotifyPage(w, "success", "Payment confirmed", "Taking you to your order…", target)
		return
	}

	// Carry the original gateway parameters forward so the failure page (and
	// support) can see exactly what came back.
	q := r.URL.Query()
	q.Set("reason", outcome.Reason)
	if outcome.SupportRef != "" {
		q.Set("support_ref", outcome.SupportRef)
	}
	if outcome.PaymentRequestID > 0 {
		q.Set("payment_request_id", strconv.FormatInt(outcome.PaymentRequestID, 10))
	}

	target := "/payment/" + string(outcome.Gateway) + "/failure?" + q.Encode()

	app.renderNotifyPage(w, "failed", "Payment not completed", "Taking you to the details…", target)
}

// gatewayFailureRedirectHandler serves the provider-initiated failure
// redirects. Nothing to verify: forward the browser, query string intact, to
// the terminal failure page.
func (app *application) gatewayFailureRedirectHandler(w http.ResponseWriter, r *http.Request) {
	gateway := payflow.Classify(r.URL.Path, r.URL.Query())

	app.metrics.VerificationsTotal.WithLabelValues(string(gateway), string(payflow.StateFailed)).Inc()

	target := "/payment/" + string(gateway) + "/failure"
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

//	@Summary		Payment success page
//	@Tags			payment
//	@Produce		html
//	@Success		200
//	@Router			/payment/esewa/success [get]
func (app *application) successPageHandler(w http.ResponseWriter, r *http.Request) {
	setPageHeaders(w)
	_ = successPageTmpl.Execute(w, map[string]any{
		"Gateway": gatewayLabel(payflow.Classify(r.URL.Path, r.URL.Query())),
	})
}

//	@Summary		Cash on delivery success page
//	@Tags			payment
//	@Produce		html
//	@Success		200
//	@Router			/payment/cod/success [get]
func (app *application) codSuccessPageHandler(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{}

	// Enrich with the latest payment record when a session is present. The
	// page renders fine without it.
	if s := session.FromContext(r.Context()); s != nil {
		summary, err := app.api.LatestPayment(r.Context(), s.UserID)
		if err != nil {
			app.logger.Debugw("latest payment lookup failed", "user_id", s.UserID, "error", err)
		} else if summary != nil {
			data["Summary"] = summary
		}
	}

	setPageHeaders(w)
	_ = codSuccessPageTmpl.Execute(w, data)
}

//	@Summary		Payment failure page
//	@Tags			payment
//	@Produce		html
//	@Success		200
//	@Router			/payment/esewa/failure [get]
func (app *application) failurePageHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	message := reasonMessages[q.Get("reason")]
	if message == "" {
		message = "The payment could not be completed."
	}

	var paymentRequestID int64
	if raw := q.Get("payment_request_id"); raw != "" {
		paymentRequestID, _ = strconv.ParseInt(raw, 10, 64)
	}

	setPageHeaders(w)
	_ = failurePageTmpl.Execute(w, map[string]any{
		"Gateway":          gatewayLabel(payflow.Classify(r.URL.Path, r.URL.Query())),
		"Message":          message,
		"SupportRef":       q.Get("support_ref"),
		"PaymentRequestID": paymentRequestID,
	})
}

//	@Summary		Cancel a pending payment
//	@Description	Discards the pending payment record so its callbacks can no longer complete
//	@Tags			payment
//	@Success		303
//	@Router			/payment/cancel [post]
func (app *application) cancelPaymentHandler(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	if s == nil {
		app.unauthorizedErrorResponse(w, r, fmt.Errorf("no active session"))
		return
	}

	if err := r.ParseForm(); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	paymentRequestID, err := strconv.ParseInt(r.PostFormValue("payment_request_id"), 10, 64)
	if err != nil || paymentRequestID <= 0 {
		app.badRequestResponse(w, r, fmt.Errorf("invalid payment_request_id"))
		return
	}

	// Only the owner may discard their in-flight payment. An absent record
	// (expired or already consumed) is a no-op, not an error.
	record, err := app.pendingPayments.GetByID(r.Context(), paymentRequestID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if record == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if record.UserID != s.UserID {
		app.forbiddenResponse(w, r, fmt.Errorf("payment %d does not belong to user %d", paymentRequestID, s.UserID))
		return
	}

	if err := app.reconciler.Cancel(r.Context(), paymentRequestID); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// renderNotifyPage serves the interstitial the gateway lands on: a short
// toast, then a scripted redirect to the terminal page. HTML rather than a
// 302 because some in-app browsers mishandle redirect chains coming back
// from the gateway, and the pause lets the user read the result.
func (app *application) renderNotifyPage(w http.ResponseWriter, result, title, subtitle, target string) {
	setPageHeaders(w)
	_ = notifyPageTmpl.Execute(w, map[string]any{
		"Result":   result,
		"Title":    title,
		"Subtitle": subtitle,
		"Target":   target,
		"DelayMs":  notifyRedirectDelay.Milliseconds(),
	})
}

func renderAutoPostForm(w http.ResponseWriter, action string, fields map[string]string) error {
	return autoPostFormTmpl.Execute(w, map[string]any{
		"Action": action,
		"Fields": fields,
	})
}

func setPageHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store, max-age=0")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Referrer-Policy", "no-referrer")
}

func gatewayLabel(g payflow.GatewayKind) string {
	switch g {
	case payflow.GatewayEsewa:
		return "eSewa"
	case payflow.GatewayKhalti:
		return "Khalti"
	case payflow.GatewayCOD:
		return "Cash on Delivery"
	default:
		return string(g)
	}
}

var notifyPageTmpl = template.Must(template.New("notify").Parse(`<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>{{.Title}}</title>
    <style>
      body { font-family: system-ui, -apple-system, Segoe UI, Roboto; padding: 24px; }
      .box { max-width: 480px; margin: 40px auto; text-align: center; }
      .toast { display: inline-block; padding: 12px 20px; border-radius: 10px; color: #fff; }
      .toast.success { background: #15803d; }
      .toast.failed { background: #b91c1c; }
      .muted { opacity: 0.7; margin-top: 12px; }
    </style>
  </head>
  <body>
    <div class="box">
      <p><span class="toast {{.Result}}">{{.Title}}</span></p>
      <p class="muted">{{.Subtitle}}</p>
      <p class="muted"><a href="{{.Target}}">Continue</a></p>
    </div>
    <script>
      setTimeout(function() {
        window.location.href = {{.Target}};
      }, {{.DelayMs}});
    </script>
  </body>
</html>`))

var autoPostFormTmpl = template.Must(template.New("autopost").Parse(`<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>Redirecting…</title>
  <style>
    body { font-family: -apple-system, system-ui, Segoe UI, Roboto, Arial; padding: 24px; }
    .box { max-width: 480px; margin: 40px auto; text-align: center; }
  </style>
</head>
<body>
  <div class="box">
    <h3>Redirecting to the payment gateway…</h3>
    <p>Please wait.</p>

    <form id="f" method="POST" action="{{.Action}}">
      {{range $k, $v := .Fields}}
        <input type="hidden" name="{{$k}}" value="{{$v}}">
      {{end}}
      <noscript><button type="submit">Continue</button></noscript>
    </form>

    <script>
      (function(){ document.getElementById('f').submit(); })();
    </script>
  </div>
</body>
</html>`))

var successPageTmpl = template.Must(template.New("success").Parse(`<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Order confirmed</title>
    <style>
      body { font-family: system-ui, -apple-system, Segoe UI, Roboto; padding: 24px; }
      .box { max-width: 480px; margin: 40px auto; text-align: center; }
      .btn { display: inline-block; padding: 12px 16px; border-radius: 10px; background: #111; color: #fff; text-decoration: none; }
      .muted { opacity: 0.7; margin-top: 12px; }
    </style>
  </head>
  <body>
    <div class="box">
      <h2>Thank you! Your order is confirmed.</h2>
      <p class="muted">Paid via {{.Gateway}}.</p>
      <p><a class="btn" href="/v1/store/orders">View my orders</a></p>
      <p class="muted"><a href="/">Continue shopping</a></p>
    </div>
  </body>
</html>`))

var codSuccessPageTmpl = template.Must(template.New("cod").Parse(`<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Order placed</title>
    <style>
      body { font-family: system-ui, -apple-system, Segoe UI, Roboto; padding: 24px; }
      .box { max-width: 480px; margin: 40px auto; text-align: center; }
      .btn { display: inline-block; padding: 12px 16px; border-radius: 10px; background: #111; color: #fff; text-decoration: none; }
      .muted { opacity: 0.7; margin-top: 12px; }
    </style>
  </head>
  <body>
    <div class="box">
      <h2>Order placed!</h2>
      <p class="muted">Pay in cash when your order arrives.</p>
      {{with .Summary}}
      <p class="muted">Order total: Rs. {{printf "%.2f" .OrderTotal}} ({{.PaymentMethodName}}, {{.PaymentStatus}})</p>
      {{end}}
      <p><a class="btn" href="/v1/store/orders">View my orders</a></p>
      <p class="muted"><a href="/">Continue shopping</a></p>
    </div>
  </body>
</html>`))

var failurePageTmpl = template.Must(template.New("failure").Parse(`<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Payment failed</title>
    <style>
      body { font-family: system-ui, -apple-system, Segoe UI, Roboto; padding: 24px; }
      .box { max-width: 480px; margin: 40px auto; text-align: center; }
      .btn { display: inline-block; padding: 12px 16px; border-radius: 10px; background: #111; color: #fff; text-decoration: none; }
      .btn.secondary { background: #e5e7eb; color: #111; border: 0; font: inherit; cursor: pointer; }
      .muted { opacity: 0.7; margin-top: 12px; }
      .ref { font-family: ui-monospace, monospace; background: #f3f4f6; padding: 2px 6px; border-radius: 6px; }
    </style>
  </head>
  <body>
    <div class="box">
      <h2>{{.Gateway}} payment failed</h2>
      <p class="muted">{{.Message}}</p>
      {{if .SupportRef}}
      <p class="muted">Quote reference <span class="ref">{{.SupportRef}}</span> when contacting support.</p>
      {{end}}
      <p><a class="btn" href="/v1/store/checkout/methods">Try again</a></p>
      {{if .PaymentRequestID}}
      <form method="POST" action="/payment/cancel">
        <input type="hidden" name="payment_request_id" value="{{.PaymentRequestID}}">
        <button class="btn secondary" type="submit">Cancel this payment</button>
      </form>
      {{end}}
    </div>
  </body>
</html>`))
