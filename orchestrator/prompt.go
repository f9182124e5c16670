package orchestrator

import (
	"strings"

	ai "github.com/spetersoncode/abapforge"
)

const basePrompt = "Você é um desenvolvedor SAP sênior especialista em ABAP, com profundo conhecimento de ECC e S/4HANA."

var kindPrompts = map[ai.Kind]string{
	ai.KindModule: "Gere o código ABAP completo do módulo solicitado. " +
		"Responda somente com o código, sem explicações fora de comentários ABAP.",
	ai.KindProgram: "Gere o código ABAP completo do programa solicitado, incluindo tela de seleção quando fizer sentido. " +
		"Responda somente com o código, sem explicações fora de comentários ABAP.",
	ai.KindSpecification: "Escreva uma especificação técnica em Markdown para o desenvolvimento solicitado, " +
		"com objetivo, objetos envolvidos, regras de negócio, tratamento de erros e cenários de teste.",
	ai.KindChat: "Responda dúvidas sobre desenvolvimento ABAP e SAP de forma objetiva, " +
		"com exemplos de código quando forem úteis. Recuse assuntos fora desse escopo.",
}

var preferencePrompts = map[string]string{
	"modernSyntax":      "Use sintaxe ABAP moderna (7.40+): declarações inline, expressões construtoras e string templates.",
	"comments":          "Comente as partes relevantes do código em português.",
	"errorHandling":     "Implemente tratamento de erros com exceções baseadas em classe (TRY/CATCH) e mensagens claras.",
	"namingConventions": "Siga as convenções de nomenclatura SAP: objetos no namespace Z/Y e prefixos como lv_, lt_, ls_ e gv_.",
	"unitTests":         "Inclua uma classe de teste ABAP Unit cobrindo os cenários principais.",
	"performance":       "Otimize o desempenho: evite SELECT dentro de loops e use tabelas SORTED ou HASHED quando adequado.",
}

var subTypeLabels = map[ai.Kind]string{
	ai.KindModule:  "Tipo de módulo",
	ai.KindProgram: "Tipo de programa",
}

// BuildMessages turns an intent into the generation conversation: a system
// prompt for the kind and preferences, prior chat turns for chat requests,
// then the user's request.
func BuildMessages(intent ai.Intent) []ai.Message {
	msgs := []ai.Message{ai.SystemMessage(systemPrompt(intent))}

	if intent.Kind == ai.KindChat {
		for _, m := range intent.History {
			if strings.TrimSpace(m.Content) == "" || m.Role == ai.RoleSystem {
				continue
			}
			msgs = append(msgs, m)
		}
		return append(msgs, ai.UserMessage(strings.TrimSpace(intent.Description)))
	}

	return append(msgs, ai.UserMessage(userPrompt(intent)))
}

func systemPrompt(intent ai.Intent) string {
	var b strings.Builder
	b.WriteString(basePrompt)
	if p := kindPrompts[intent.Kind]; p != "" {
		b.WriteString("\n")
		b.WriteString(p)
	}

	// Preferences shape code; chat answers stay free-form.
	if intent.Kind == ai.KindChat {
		return b.String()
	}
	for _, f := range intent.Preferences.Flags() {
		if !f.Enabled {
			continue
		}
		b.WriteString("\n- ")
		b.WriteString(preferencePrompts[f.Name])
	}
	return b.String()
}

func userPrompt(intent ai.Intent) string {
	lines := []string{"Descrição: " + strings.TrimSpace(intent.Description)}
	if st := strings.TrimSpace(intent.SubType); st != "" {
		label := subTypeLabels[intent.Kind]
		if label == "" {
			label = "Tipo"
		}
		lines = append(lines, label+": "+st)
	}
	if ctx := strings.TrimSpace(intent.AdditionalContext); ctx != "" {
		lines = append(lines, "Contexto adicional: "+ctx)
	}
	return strings.Join(lines, "\n")
}
