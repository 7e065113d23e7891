// Package i18n is the reply-string lookup table. The dialogue core only
// ever queries it by key; English is the fallback for unknown languages.
package i18n

var tables = map[string]map[string]string{
	"en": {
		"not_authorized": "You are not in the valid users list!",
		"welcome": "Welcome to the topic chat bot!\n" +
			"/topic — manage topics\n" +
			"/model — show or choose the model\n" +
			"/chat — start chatting (send /cancel to leave)\n" +
			"/image — generate an image\n" +
			"/cancel — abort the current action",
		"ok":                 "OK",
		"topic_menu":         "How can I help?",
		"menu_new_topic":     "new topic",
		"menu_existing_topic": "existing topic",
		"menu_no_topic":      "no topic",
		"menu_show_topic":    "show current topic",
		"menu_delete_topic":  "delete topic",
		"menu_cancel":        "cancel",
		"menu_show_model":    "show current model",
		"menu_choose_model":  "choose model",
		"ask_topic_name":     "Topic?\nPreferably a single word!",
		"topic_created":      "Topic created and active.",
		"topic_reactivated":  "Topic already exists and is active now!",
		"invalid_topic_name": "That is not a usable topic name.",
		"your_topics":        "Your topics:",
		"no_topics":          "You have no topics yet.",
		"current_topic":      "current topic:\n%s",
		"no_current_topic":   "current topic:\nnone",
		"topic_not_found":    "No topic named %q.",
		"model_menu":         "Model options:",
		"current_model":      "current model:\n%s",
		"choose_model":       "Available models:",
		"no_models":          "No models available.",
		"model_set":          "Model set to %s.",
		"model_rejected":     "Model %q is not allowed.",
		"chat_started":       "Chat started. Send /cancel to leave.",
		"image_prompt":       "What should the image show?",
		"save_warning":       "Warning: your change may not have been saved.",
		"storage_error":      "Something went wrong loading your data, please try again.",
	},
	"de": {
		"not_authorized": "You are not in the valid users list!",
		"welcome": "Wilkommen beim Themen-Chat-Bot!\n" +
			"/topic — Themen verwalten\n" +
			"/model — Modell anzeigen oder wählen\n" +
			"/chat — Chat starten (/cancel zum Beenden)\n" +
			"/image — Bild erzeugen\n" +
			"/cancel — aktuelle Aktion abbrechen",
		"ok":                 "OK",
		"topic_menu":         "Wie kann ich helfen?",
		"menu_new_topic":     "neues Thema",
		"menu_existing_topic": "vorhandenes Thema",
		"menu_no_topic":      "ohne Thema",
		"menu_show_topic":    "zeige aktuelles Thema",
		"menu_delete_topic":  "lösche Thema",
		"menu_cancel":        "abbrechen",
		"menu_show_model":    "zeige aktuelles Modell",
		"menu_choose_model":  "Modell wählen",
		"ask_topic_name":     "Thema?\nMöglichst als ein Wort!",
		"topic_created":      "Thema angelegt und aktiv.",
		"topic_reactivated":  "Thema existiert schon und ist jetzt aktiv!",
		"invalid_topic_name": "Das ist kein brauchbarer Themenname.",
		"your_topics":        "Deine Themen:",
		"no_topics":          "Du hast noch keine Themen.",
		"current_topic":      "aktuelles Thema:\n%s",
		"no_current_topic":   "aktuelles Thema:\nkeines",
		"topic_not_found":    "Kein Thema namens %q.",
		"model_menu":         "Modell-Optionen:",
		"current_model":      "aktuelles Modell:\n%s",
		"choose_model":       "Verfügbare Modelle:",
		"no_models":          "Keine Modelle verfügbar.",
		"model_set":          "Modell auf %s gesetzt.",
		"model_rejected":     "Modell %q ist nicht erlaubt.",
		"chat_started":       "Chat gestartet. /cancel zum Beenden.",
		"image_prompt":       "Was soll das Bild zeigen?",
		"save_warning":       "Achtung: deine Änderung wurde womöglich nicht gespeichert.",
		"storage_error":      "Beim Laden deiner Daten ging etwas schief, bitte versuch es nochmal.",
	},
}

// T returns the string for key in lang, falling back to English. Unknown
// keys come back verbatim so a missing entry is visible, not silent.
func T(lang, key string) string {
	if table, ok := tables[lang]; ok {
		if s, ok := table[key]; ok {
			return s
		}
	}
	if s, ok := tables["en"][key]; ok {
		return s
	}
	return key
}
