package web

// Stat は見出し付きの数値。
type Stat struct {
	Value string
	Label string
}

// Feature は「Recursos」の1項目。
type Feature struct {
	Icon        string
	Title       string
	Description string
}

// Plan は料金プラン。
type Plan struct {
	Name        string
	Price       string
	Description string
	Popular     bool
	Features    []string
}

// CTALabel はプランのボタン文言を返す。Ouroだけ営業への問い合わせになる。
func (p Plan) CTALabel() string {
	if p.Name == "Ouro" {
		return "Contatar Vendas"
	}
	return "Começar Agora"
}

// Value は「Sobre」の価値観の1項目。
type Value struct {
	Title       string
	Description string
}

// NavLink はヘッダーのページ内リンク。
type NavLink struct {
	Anchor string
	Label  string
}

// Landing はトップページの内容。
type Landing struct {
	Nav      []NavLink
	Hero     HeroSection
	Features []Feature
	Plans    []Plan
	About    AboutSection
	Contact  ContactSection
	Year     int
}

type HeroSection struct {
	Lead  string
	Stats []Stat
}

type AboutSection struct {
	Intro   string
	Mission string
	Values  []Value
	Stats   []Stat
}

type ContactSection struct {
	Email string
	Phone string
	City  string
}

// LandingContent はトップページの固定コンテンツを返す。
func LandingContent() Landing {
	return Landing{
		Nav: []NavLink{
			{Anchor: "recursos", Label: "Recursos"},
			{Anchor: "planos", Label: "Planos"},
			{Anchor: "sobre", Label: "Sobre"},
			{Anchor: "contato", Label: "Contato"},
		},
		Hero: HeroSection{
			Lead: "Nossa plataforma de Business Intelligence utiliza GPT para gerar relatórios automatizados, dashboards interativos e análises avançadas que impulsionam o crescimento do seu negócio.",
			Stats: []Stat{
				{Value: "5+", Label: "Relatórios por mês com IA"},
				{Value: "48h", Label: "Suporte técnico"},
				{Value: "100%", Label: "Automação de dashboards"},
			},
		},
		Features: []Feature{
			{Icon: "🤖", Title: "IA Integrada com GPT", Description: "Geração automática de relatórios inteligentes usando GPT para análises profundas e insights precisos."},
			{Icon: "📊", Title: "Dashboards Interativos", Description: "Visualizações dinâmicas e personalizáveis que se atualizam automaticamente com seus dados."},
			{Icon: "📈", Title: "Análises Avançadas", Description: "Identifique tendências, padrões e oportunidades com nossas ferramentas de análise preditiva."},
			{Icon: "🔄", Title: "Automação Completa", Description: "Relatórios agendados, atualizações automáticas e integração com seus sistemas existentes."},
			{Icon: "📱", Title: "Acesso Multiplataforma", Description: "Acesse seus dados e relatórios de qualquer dispositivo, a qualquer hora, em qualquer lugar."},
			{Icon: "🔒", Title: "Segurança Avançada", Description: "Proteção de dados com criptografia de ponta e controles de acesso granulares."},
		},
		Plans: []Plan{
			{
				Name:        "Bronze",
				Price:       "Gratuito",
				Description: "Ideal para começar",
				Features: []string{
					"1 projeto de relatório ativo",
					"Geração de até 5 relatórios por mês com GPT",
					"Exportação em PDF limitada (marca d'água inclusa)",
					"Acesso a 1 tipos de modelos de relatório (ex: vendas)",
					"Sem suporte técnico direto (acesso apenas a FAQ e base de conhecimento)",
				},
			},
			{
				Name:        "Prata",
				Price:       "R$ 79,90",
				Description: "Para pequenas empresas",
				Popular:     true,
				Features: []string{
					"Até 3 projetos de relatório ativos",
					"Exportação em PDF e Excel (sem marca d'água)",
					"Templates personalizáveis",
					"Acesso a 1 tipos de modelos de relatório (ex: vendas)",
					"Suporte por e-mail em até 48h úteis",
					"Atualização automática de dashboards",
				},
			},
			{
				Name:        "Ouro",
				Price:       "Valor a definir",
				Description: "Para grandes empresas",
				Features: []string{
					"Projetos e relatórios ilimitados",
					"Geração automática agendada (diária, semanal etc.)",
					"Geração avançada de imagens explicativas (infográficos com IA)",
					"Suporte dedicado via WhatsApp ou portal exclusivo",
					"Integração com sistemas ERP/CRM do cliente",
					"SLA prioritário",
				},
			},
		},
		About: AboutSection{
			Intro:   "Somos especialistas em transformar dados complexos em insights acionáveis, combinando inteligência artificial com experiência em Business Intelligence.",
			Mission: "Democratizar o acesso a análises avançadas de dados, permitindo que empresas de todos os tamanhos tomem decisões baseadas em informações precisas e insights inteligentes gerados por IA.",
			Values: []Value{
				{Title: "Inovação Constante", Description: "Sempre na vanguarda das tecnologias de IA e análise de dados"},
				{Title: "Simplicidade", Description: "Transformamos complexidade em soluções simples e intuitivas"},
				{Title: "Resultados Comprovados", Description: "Historial de sucesso em projetos de diversos setores"},
			},
			Stats: []Stat{
				{Value: "500+", Label: "Projetos Entregues"},
				{Value: "50+", Label: "Clientes Satisfeitos"},
				{Value: "5+", Label: "Anos de Experiência"},
				{Value: "99%", Label: "Taxa de Satisfação"},
			},
		},
		Contact: ContactSection{
			Email: "contato@bie.com.br",
			Phone: "(11) 4000-0000",
			City:  "São Paulo, SP",
		},
	}
}
