package dedup

import (
	"strings"
	"time"

	"github.com/pulso-data/pulso-etl/pkg/models"
)

// RuleKey addresses one homologation rule by its three raw levels.
type RuleKey struct {
	N1, N2, N3 string
}

// NormalizeRuleKey lowercases and trims the levels so source-side casing
// differences do not break the join.
func NormalizeRuleKey(n1, n2, n3 string) RuleKey {
	return RuleKey{
		N1: strings.ToLower(strings.TrimSpace(n1)),
		N2: strings.ToLower(strings.TrimSpace(n2)),
		N3: strings.ToLower(strings.TrimSpace(n3)),
	}
}

// AccountRef ties a source document to its campaign account and current
// debt, used for attribution and compromise amounts.
type AccountRef struct {
	Cuenta      string
	CodLuna     string
	Archivo     string
	MontoActual float64
}

// attributeAccount returns acct only when the interaction timestamp falls
// inside the owning campaign's window. Interactions outside the window, or
// whose campaign has no calendar entry, stay unattributed: they keep their
// classification but carry no cuenta, archivo or compromise amount.
func attributeAccount(acct *AccountRef, windows map[string]*models.CampaignWindow, ts, today time.Time) *AccountRef {
	if acct == nil {
		return nil
	}
	w, ok := windows[acct.Archivo]
	if !ok || !w.Contains(ts, today) {
		return nil
	}
	return acct
}

// UnifyVoicebot normalizes one automated-channel interaction. Interactions
// with no matching rule stay in the result as SIN_CLASIFICAR so they remain
// visible in intensity counts without ever counting as contacts.
func UnifyVoicebot(g models.VoicebotGestion, rules map[RuleKey]*models.HomologacionRule, acct *AccountRef) *models.GestionUnificada {
	u := &models.GestionUnificada{
		UID:          g.UID,
		Canal:        models.CanalBot,
		FechaGestion: g.Date,
		HoraGestion:  g.Date.Hour(),
	}
	applyRule(u, rules[NormalizeRuleKey(g.Management, g.SubManagement, g.Compromiso)], acct)
	return u
}

// UnifyMibotair normalizes one human-channel interaction.
func UnifyMibotair(g models.MibotairGestion, rules map[RuleKey]*models.HomologacionRule, acct *AccountRef) *models.GestionUnificada {
	u := &models.GestionUnificada{
		UID:          g.UID,
		Canal:        models.CanalHumano,
		FechaGestion: g.Date,
		HoraGestion:  g.Date.Hour(),
		Ejecutivo:    g.Ejecutivo,
	}
	applyRule(u, rules[NormalizeRuleKey(g.N1, g.N2, g.N3)], acct)
	return u
}

func applyRule(u *models.GestionUnificada, rule *models.HomologacionRule, acct *AccountRef) {
	if acct != nil {
		u.Cuenta = acct.Cuenta
		u.CodLuna = acct.CodLuna
		u.Archivo = acct.Archivo
	}

	if rule == nil {
		u.Contactabilidad = models.SinClasificar
		return
	}

	u.Contactabilidad = rule.Contactabilidad
	u.EsContactoEfectivo = rule.Contactabilidad == models.ContactoEfectivo
	u.EsCompromiso = rule.EsCompromiso
	u.PesoGestion = rule.PesoGestion

	// Compromise amount comes from the account's current debt snapshot,
	// never from the raw interaction.
	if u.EsCompromiso && acct != nil {
		u.MontoCompromiso = acct.MontoActual
	}
}
