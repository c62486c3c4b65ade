package dialog

import (
	"fmt"
	"strings"

	"github.com/SOLUZZZZZZ1/voice-cr/pkg/intent"
)

// All caller-facing wording lives here. The role question is reused verbatim
// by the greeting and the restart prompt so a reset sounds exactly like the
// beginning of the call.
const (
	promptRoleQuestion = "¿Es usted propietario, inquilino o franquiciado?"
	promptGreeting     = "Bienvenido a SpainRoom. " + promptRoleQuestion
	promptRoleRetry    = "¿Es propietario, inquilino o franquiciado?"
	promptCity         = "De acuerdo. ¿En qué ciudad o población?"
	promptZone         = "Perfecto. ¿Qué zona le interesa para la franquicia?"
	promptName         = "Perfecto. ¿Su nombre y apellidos, por favor?"
	promptPhone        = "Gracias. ¿Me indica un teléfono de contacto?"
	promptPhoneRetry   = "No he captado bien el teléfono. Dígamelo dígito a dígito, por favor."
	promptConfirmRetry = "¿Podría confirmar si es correcto, sí o no?"
	promptRestart      = "De acuerdo, volvemos a empezar. " + promptRoleQuestion
	promptDone         = "¿Desea algo más?"
	promptMiss         = "No le he entendido. ¿Podría repetirlo, por favor?"
)

func locationPrompt(role intent.Role) string {
	if role == intent.RoleFranchisee {
		return promptZone
	}
	return promptCity
}

func confirmPrompt(f Fields) string {
	if f.Role == intent.RoleFranchisee {
		return fmt.Sprintf("Entonces, %s, interesado en la franquicia para la zona %s, teléfono %s. ¿Es correcto?",
			f.Name, f.Location, f.Phone)
	}
	return fmt.Sprintf("Entonces, %s, %s en %s, teléfono %s. ¿Es correcto?",
		f.Name, f.Role, f.Location, f.Phone)
}

func closingPrompt(role intent.Role) string {
	if role == intent.RoleFranchisee {
		return "Perfecto. El equipo de franquicias de SpainRoom se pondrá en contacto con usted. ¡Gracias!"
	}
	return "Perfecto. Un asesor de SpainRoom se pondrá en contacto con usted. ¡Gracias!"
}

func (m *Machine) missEscalatedPrompt() string {
	var b strings.Builder
	b.WriteString("Puede decir propietario, inquilino o franquiciado.")
	if m.fallbackPhone != "" {
		fmt.Fprintf(&b, " Si lo prefiere, llame a nuestro equipo al %s.", m.fallbackPhone)
	}
	return b.String()
}
