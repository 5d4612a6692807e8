package helpers

import (
	"fmt"
	"html"
	"time"
)

func BuildSimpleHTML(title, body string) string {
	return fmt.Sprintf(`
<html>
  <body style="font-family:Arial,sans-serif; background:#f9f9f9;">
    <table width="100%%" cellpadding="0" cellspacing="0" bgcolor="#f9f9f9">
      <tr>
        <td align="center" style="padding:32px 0;">
          <table width="500" bgcolor="#fff" cellpadding="24" cellspacing="0" style="border-radius:8px; box-shadow:0 1px 6px #eee;">
            <tr>
              <td>
                <h2 style="color:#2d74da; margin-top:0;">%s</h2>
                <div style="font-size:16px; color:#222;">%s</div>
                <hr style="margin:32px 0 16px 0; border:0; border-top:1px solid #eee;">
                <div style="font-size:12px; color:#999;">Письмо сгенерировано автоматически. Не отвечайте на него.</div>
              </td>
            </tr>
          </table>
        </td>
      </tr>
    </table>
  </body>
</html>
`, html.EscapeString(title), body)
}

// BuildPasswordResetHTML — письмо со ссылкой на сброс пароля.
func BuildPasswordResetHTML(resetLink string, ttl time.Duration) string {
	return fmt.Sprintf(`
<html>
  <body style="font-family:Arial,sans-serif; background:#f9f9f9;">
    <table width="100%%" cellpadding="0" cellspacing="0" bgcolor="#f9f9f9">
      <tr>
        <td align="center" style="padding:32px 0;">
          <table width="500" bgcolor="#fff" cellpadding="24" cellspacing="0" style="border-radius:8px; box-shadow:0 1px 6px #eee;">
            <tr>
              <td>
                <h2 style="color:#2d74da; margin-top:0;">Восстановление пароля</h2>
                <p style="font-size:16px; color:#222;">Вы запросили восстановление пароля для учётной записи портала колледжа.</p>
                <p>Чтобы установить новый пароль, перейдите по ссылке ниже:</p>
                <p>
                  <a href="%s" style="display:inline-block;padding:12px 24px;background:#2d74da;color:#fff;text-decoration:none;border-radius:5px;font-weight:bold;">
                    Сбросить пароль
                  </a>
                </p>
                <p style="font-size:14px; color:#666;">Ссылка действительна %s и срабатывает один раз.</p>
                <hr style="margin:32px 0 16px 0; border:0; border-top:1px solid #eee;">
                <div style="font-size:12px; color:#999;">Если вы не запрашивали восстановление пароля, просто проигнорируйте это письмо.</div>
              </td>
            </tr>
          </table>
        </td>
      </tr>
    </table>
  </body>
</html>
`, html.EscapeString(resetLink), humanizeTTL(ttl))
}

// BuildPasswordChangedHTML — уведомление после успешной смены/сброса пароля.
func BuildPasswordChangedHTML(changedAt time.Time) string {
	body := fmt.Sprintf(
		`<p>Пароль вашей учётной записи был изменён %s (UTC).</p>
<p style="font-size:14px; color:#666;">Если это были не вы, срочно свяжитесь с администрацией колледжа.</p>`,
		changedAt.UTC().Format("02.01.2006 15:04"),
	)
	return BuildSimpleHTML("Пароль изменён", body)
}

func humanizeTTL(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		return fmt.Sprintf("%d ч.", int(d/time.Hour))
	case d >= time.Minute:
		return fmt.Sprintf("%d мин.", int(d/time.Minute))
	default:
		return d.String()
	}
}
