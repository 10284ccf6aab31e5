package templates

import "fmt"

// The four canned notification emails. Each one embeds the generated
// message-id in an HTML comment so email clients do not collapse
// separate notifications into one thread.

func emailShell(messageID, heading, body, ctaURL, ctaLabel string) string {
	return fmt.Sprintf(`<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <meta http-equiv="Content-Type" content="text/html; charset=utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1, minimum-scale=1, maximum-scale=1">
  <title>%s</title>
  <style type="text/css">
    body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 0; background-color: #f4f5f7; }
    .container { max-width: 600px; margin: 0 auto; background-color: #ffffff; }
    .header { background: linear-gradient(135deg, #1d4ed8 0%%, #2563eb 100%%); padding: 32px 30px; text-align: center; }
    .header h1 { color: #fff; margin: 0; font-size: 22px; font-weight: 700; }
    .content { padding: 32px 30px; color: #1f2937; }
    .content p { line-height: 1.6; }
    .cta-button { display: inline-block; background: #2563eb; color: #fff; padding: 12px 26px; border-radius: 8px; text-decoration: none; font-weight: 700; margin-top: 16px; }
    .footer { padding: 20px 30px; color: #9ca3af; font-size: 12px; text-align: center; }
  </style>
</head>
<body>
  <!-- message-id: %s -->
  <div class="container">
    <div class="header"><h1>%s</h1></div>
    <div class="content">
      %s
      <a class="cta-button" href="%s">%s</a>
    </div>
    <div class="footer">AutoServ &middot; piața serviciilor auto din România</div>
  </div>
</body>
</html>`, heading, messageID, heading, body, ctaURL, ctaLabel)
}

// RenderNewRequestEmail generates the HTML sent to service providers
// when a client posts a request in their county.
func RenderNewRequestEmail(messageID, title, county, baseURL string) string {
	body := fmt.Sprintf(`<p>Un client a publicat o cerere nouă în județul <strong>%s</strong>:</p>
      <p><em>%s</em></p>
      <p>Trimite o ofertă cât timp cererea este activă.</p>`, county, title)
	return emailShell(messageID, "Cerere nouă", body, baseURL+"/service/requests", "Vezi cererea")
}

// RenderOfferAcceptedEmail generates the HTML sent to a service
// provider when a client accepts their offer.
func RenderOfferAcceptedEmail(messageID, requestTitle, baseURL string) string {
	body := fmt.Sprintf(`<p>Oferta ta pentru cererea <strong>%s</strong> a fost acceptată.</p>
      <p>Poți discuta acum detaliile direct cu clientul prin mesaje.</p>`, requestTitle)
	return emailShell(messageID, "Ofertă acceptată", body, baseURL+"/service/offers", "Vezi oferta")
}

// RenderNewMessageEmail generates the HTML sent when the recipient has
// an unread message.
func RenderNewMessageEmail(messageID, senderName, baseURL string) string {
	body := fmt.Sprintf(`<p>Ai primit un mesaj nou de la <strong>%s</strong>.</p>
      <p>Răspunde din contul tău AutoServ.</p>`, senderName)
	return emailShell(messageID, "Mesaj nou", body, baseURL+"/messages", "Citește mesajul")
}

// RenderNewReviewEmail generates the HTML sent to a service provider
// when a client leaves a review.
func RenderNewReviewEmail(messageID string, rating int, baseURL string) string {
	body := fmt.Sprintf(`<p>Un client ți-a lăsat o recenzie nouă: <strong>%d din 5 stele</strong>.</p>
      <p>Recenziile sunt vizibile pe profilul tău public.</p>`, rating)
	return emailShell(messageID, "Recenzie nouă", body, baseURL+"/service/reviews", "Vezi recenzia")
}
