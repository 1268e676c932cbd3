package attack

// builtinTechniques covers the techniques sandbox signature packs reference
// most often, so the converter produces useful attack-patterns without an
// enterprise-attack bundle on disk.
var builtinTechniques = map[string]Technique{
	"T1012": {ID: "T1012", Name: "Query Registry", Tactic: "discovery",
		URL: "https://attack.mitre.org/techniques/T1012"},
	"T1027": {ID: "T1027", Name: "Obfuscated Files or Information", Tactic: "defense-evasion",
		URL: "https://attack.mitre.org/techniques/T1027"},
	"T1055": {ID: "T1055", Name: "Process Injection", Tactic: "defense-evasion",
		URL: "https://attack.mitre.org/techniques/T1055"},
	"T1057": {ID: "T1057", Name: "Process Discovery", Tactic: "discovery",
		URL: "https://attack.mitre.org/techniques/T1057"},
	"T1059": {ID: "T1059", Name: "Command and Scripting Interpreter", Tactic: "execution",
		URL: "https://attack.mitre.org/techniques/T1059"},
	"T1071": {ID: "T1071", Name: "Application Layer Protocol", Tactic: "command-and-control",
		URL: "https://attack.mitre.org/techniques/T1071"},
	"T1082": {ID: "T1082", Name: "System Information Discovery", Tactic: "discovery",
		URL: "https://attack.mitre.org/techniques/T1082"},
	"T1083": {ID: "T1083", Name: "File and Directory Discovery", Tactic: "discovery",
		URL: "https://attack.mitre.org/techniques/T1083"},
	"T1105": {ID: "T1105", Name: "Ingress Tool Transfer", Tactic: "command-and-control",
		URL: "https://attack.mitre.org/techniques/T1105"},
	"T1112": {ID: "T1112", Name: "Modify Registry", Tactic: "defense-evasion",
		URL: "https://attack.mitre.org/techniques/T1112"},
	"T1129": {ID: "T1129", Name: "Shared Modules", Tactic: "execution",
		URL: "https://attack.mitre.org/techniques/T1129"},
	"T1486": {ID: "T1486", Name: "Data Encrypted for Impact", Tactic: "impact",
		URL: "https://attack.mitre.org/techniques/T1486"},
	"T1490": {ID: "T1490", Name: "Inhibit System Recovery", Tactic: "impact",
		URL: "https://attack.mitre.org/techniques/T1490"},
	"T1497": {ID: "T1497", Name: "Virtualization/Sandbox Evasion", Tactic: "defense-evasion",
		URL: "https://attack.mitre.org/techniques/T1497"},
	"T1547": {ID: "T1547", Name: "Boot or Logon Autostart Execution", Tactic: "persistence",
		URL: "https://attack.mitre.org/techniques/T1547"},
	"T1562": {ID: "T1562", Name: "Impair Defenses", Tactic: "defense-evasion",
		URL: "https://attack.mitre.org/techniques/T1562"},
	"T1573": {ID: "T1573", Name: "Encrypted Channel", Tactic: "command-and-control",
		URL: "https://attack.mitre.org/techniques/T1573"},
}
