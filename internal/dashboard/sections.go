package dashboard

// Section はサイドバーから選択できるダッシュボードの区画。
type Section struct {
	ID       string
	Name     string
	Subtitle string
}

// 区画ID
const (
	SectionDashboard   = "dashboard"
	SectionReports     = "reports"
	SectionAnalytics   = "analytics"
	SectionDataSources = "data-sources"
	SectionSettings    = "settings"
)

// ComingSoon は未実装の区画に表示する文言。
const ComingSoon = "Esta funcionalidade estará disponível em breve."

var sections = []Section{
	{ID: SectionDashboard, Name: "Dashboard", Subtitle: "Visão geral dos seus dados e métricas"},
	{ID: SectionReports, Name: "Relatórios", Subtitle: "Gerencie e crie relatórios personalizados"},
	{ID: SectionAnalytics, Name: "Analytics", Subtitle: "Análises avançadas e insights"},
	{ID: SectionDataSources, Name: "Fontes de Dados", Subtitle: "Conecte e gerencie suas fontes de dados"},
	{ID: SectionSettings, Name: "Configurações", Subtitle: "Configurações da conta e preferências"},
}

// Sections はメニューの表示順に区画を返す。
func Sections() []Section {
	out := make([]Section, len(sections))
	copy(out, sections)
	return out
}

// LookupSection はIDから区画を返す。未知のIDはダッシュボードとして扱う。
func LookupSection(id string) Section {
	for _, s := range sections {
		if s.ID == id {
			return s
		}
	}
	return sections[0]
}

// Counter はダッシュボード区画に表示する集計値。
type Counter struct {
	Label string
	Value int
}

// Counters は初期表示の集計値を返す。データ連携前のため常に0を返す。
func Counters() []Counter {
	return []Counter{
		{Label: "Relatórios"},
		{Label: "Dashboards"},
		{Label: "Insights"},
	}
}

// Step は「Primeiros Passos」の項目。
type Step struct {
	Title       string
	Description string
	Action      string
}

// FirstSteps は「Primeiros Passos」の項目を返す。
func FirstSteps() []Step {
	return []Step{
		{Title: "Criar Primeiro Relatório", Description: "Importe seus dados e crie visualizações poderosas", Action: "Começar"},
		{Title: "Conectar Fontes de Dados", Description: "Integre com suas bases de dados favoritas", Action: "Conectar"},
	}
}
