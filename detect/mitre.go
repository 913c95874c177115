package detect

import (
	"sort"
	"strings"
)

// mitreTechniques maps technique ids to names for the techniques the bundled
// rules reference. Unknown ids still surface as bare technique ids.
var mitreTechniques = map[string]string{
	"t1003": "OS Credential Dumping",
	"t1021": "Remote Services",
	"t1027": "Obfuscated Files or Information",
	"t1036": "Masquerading",
	"t1047": "Windows Management Instrumentation",
	"t1053": "Scheduled Task/Job",
	"t1055": "Process Injection",
	"t1059": "Command and Scripting Interpreter",
	"t1068": "Exploitation for Privilege Escalation",
	"t1071": "Application Layer Protocol",
	"t1078": "Valid Accounts",
	"t1082": "System Information Discovery",
	"t1098": "Account Manipulation",
	"t1105": "Ingress Tool Transfer",
	"t1110": "Brute Force",
	"t1136": "Create Account",
	"t1190": "Exploit Public-Facing Application",
	"t1204": "User Execution",
	"t1218": "System Binary Proxy Execution",
	"t1486": "Data Encrypted for Impact",
	"t1543": "Create or Modify System Process",
	"t1547": "Boot or Logon Autostart Execution",
	"t1548": "Abuse Elevation Control Mechanism",
	"t1562": "Impair Defenses",
	"t1566": "Phishing",
	"t1570": "Lateral Tool Transfer",
}

// mitreTactics maps tactic tag slugs to their display names.
var mitreTactics = map[string]string{
	"reconnaissance":       "Reconnaissance",
	"resource_development": "Resource Development",
	"initial_access":       "Initial Access",
	"execution":            "Execution",
	"persistence":          "Persistence",
	"privilege_escalation": "Privilege Escalation",
	"defense_evasion":      "Defense Evasion",
	"credential_access":    "Credential Access",
	"discovery":            "Discovery",
	"lateral_movement":     "Lateral Movement",
	"collection":           "Collection",
	"command_and_control":  "Command and Control",
	"exfiltration":         "Exfiltration",
	"impact":               "Impact",
}

// mitreFromTags extracts MITRE ATT&CK techniques and tactics from rule tags
// of the form "attack.t1059" / "attack.t1059.001" / "attack.execution".
// Both lists are deduplicated and sorted.
func mitreFromTags(tags []string) (techniques, tactics []string) {
	techSeen := make(map[string]struct{})
	tacticSeen := make(map[string]struct{})

	for _, tag := range tags {
		slug := strings.ToLower(strings.TrimSpace(tag))
		if !strings.HasPrefix(slug, "attack.") {
			continue
		}
		slug = strings.TrimPrefix(slug, "attack.")

		if strings.HasPrefix(slug, "t") && len(slug) >= 5 {
			id := strings.ToUpper(slug)
			// sub-techniques resolve through the parent technique name
			base := slug
			if i := strings.IndexByte(slug, '.'); i > 0 {
				base = slug[:i]
			}
			label := id
			if name, ok := mitreTechniques[base]; ok {
				label = id + " " + name
			}
			if _, dup := techSeen[label]; !dup {
				techSeen[label] = struct{}{}
				techniques = append(techniques, label)
			}
			continue
		}

		if name, ok := mitreTactics[slug]; ok {
			if _, dup := tacticSeen[name]; !dup {
				tacticSeen[name] = struct{}{}
				tactics = append(tactics, name)
			}
		}
	}

	sort.Strings(techniques)
	sort.Strings(tactics)
	return techniques, tactics
}
