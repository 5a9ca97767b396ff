package report

import "strings"

// CityProfile is the static market overview printed in section 二.
type CityProfile struct {
	Population      string
	Industry        string
	Business        string
	Policy          string
	Opportunities   string
	Recommendations string
}

// DefaultCity is the table key used for cities without a dedicated entry.
const DefaultCity = "其他城市"

var cityTable = map[string]CityProfile{
	"北京": {
		Population:      "北京常住人口超过两千万，高学历人群和互联网从业者集中，知识付费意愿强。",
		Industry:        "以科技、文化传媒、金融和教育培训为主，AI 与数字内容产业聚集。",
		Business:        "创投资源丰富，企业服务需求旺盛，竞争激烈但客单价较高。",
		Policy:          "中关村等园区对个体创业者提供工位补贴、孵化服务和创业担保贷款。",
		Opportunities:   "AI 工具培训、企业内容外包、知识付费社群、高端个人服务。",
		Recommendations: "优先选择可远程交付的知识型服务，借助本地行业圈层获客。",
	},
	"上海": {
		Population:      "上海常住人口约两千五百万，白领与外资企业员工比例高，消费力强。",
		Industry:        "金融、贸易、时尚消费和生物医药领先，新消费品牌活跃。",
		Business:        "商业规则成熟，对专业度和服务品质要求高，愿意为品质付费。",
		Policy:          "各区设有一网通办和创业孵化基地，提供首次创业补贴与场地支持。",
		Opportunities:   "品牌设计、跨境电商服务、精品咨询、生活方式类内容。",
		Recommendations: "强调专业形象与交付标准，适合高客单价的精品服务路线。",
	},
	"深圳": {
		Population:      "深圳人口结构年轻，平均年龄约三十岁，创业氛围浓厚。",
		Industry:        "电子硬件、跨境电商和互联网产业集中，供应链完整。",
		Business:        "节奏快，决策效率高，对数字化工具接受度高。",
		Policy:          "对初创个体提供创业补贴、租金减免和人才引进奖励。",
		Opportunities:   "跨境电商运营、硬件产品推广、短视频带货、AI 自动化服务。",
		Recommendations: "依托本地供应链做产品型副业，或为中小卖家提供运营外包。",
	},
	"杭州": {
		Population:      "杭州新一线城市，电商从业者密集，年轻人口持续净流入。",
		Industry:        "电商、直播、数字经济产业链成熟，平台与服务商生态完整。",
		Business:        "直播和内容电商基础设施完善，合作伙伴容易找到。",
		Policy:          "对大学生和青年创业者提供无息贷款、场地和流量扶持。",
		Opportunities:   "直播运营、电商代运营、内容创作、私域社群运营。",
		Recommendations: "借助本地电商生态切入细分品类，先做服务再做产品。",
	},
	"广州": {
		Population:      "广州人口超过一千八百万，商贸传统深厚，消费市场多元。",
		Industry:        "商贸批发、服装美妆、餐饮和汽车产业发达。",
		Business:        "批发市场和供应链资源丰富，创业成本相对一线城市更低。",
		Policy:          "提供创业带动就业补贴、孵化基地和创业培训补贴。",
		Opportunities:   "服装美妆带货、餐饮品牌策划、本地生活服务、外贸代理。",
		Recommendations: "结合本地货源做电商或本地生活服务，控制启动成本。",
	},
	DefaultCity: {
		Population:      "所在城市人口密集，消费能力不断增强，年轻群体占比高。",
		Industry:        "产业结构多元化，涵盖科技、文化、服务业等多个领域。",
		Business:        "商业环境逐步成熟，创业生态活跃，数字化需求增长明显。",
		Policy:          "政府大力支持创新创业，提供多项优惠政策和资金扶持。",
		Opportunities:   "数字化升级、新消费、科技服务等领域机会众多。",
		Recommendations: "结合当地产业特色，发挥自身优势，选择合适的创业方向。",
	},
}

// LookupCity returns the profile for city and whether a dedicated entry
// exists. Unknown cities get the DefaultCity profile.
func LookupCity(city string) (CityProfile, bool) {
	if p, ok := cityTable[city]; ok && city != DefaultCity {
		return p, true
	}
	// "杭州市" and similar suffixed names.
	for name, p := range cityTable {
		if name != DefaultCity && strings.HasPrefix(city, name) {
			return p, true
		}
	}
	return cityTable[DefaultCity], false
}
