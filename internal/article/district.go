package article

import "strings"

// AllDistricts 哨兵值：代表全省所有区县
const AllDistricts = "Karnataka"

// Districts 卡纳塔克邦的全部区县
var Districts = []string{
	"Bagalkot",
	"Ballari",
	"Belagavi",
	"Bengaluru Rural",
	"Bengaluru Urban",
	"Bidar",
	"Chamarajanagar",
	"Chikkaballapur",
	"Chikkamagaluru",
	"Chitradurga",
	"Dakshina Kannada",
	"Davanagere",
	"Dharwad",
	"Gadag",
	"Hassan",
	"Haveri",
	"Kalaburagi",
	"Kodagu",
	"Kolar",
	"Koppal",
	"Mandya",
	"Mysuru",
	"Raichur",
	"Ramanagara",
	"Shivamogga",
	"Tumakuru",
	"Udupi",
	"Uttara Kannada",
	"Vijayanagara",
	"Vijayapura",
	"Yadgir",
}

// NormalizeDistrict 忽略大小写匹配区县名（含哨兵值），返回规范写法
func NormalizeDistrict(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, AllDistricts) {
		return AllDistricts, true
	}
	for _, d := range Districts {
		if strings.EqualFold(d, s) {
			return d, true
		}
	}
	return "", false
}

// SearchQuery 构造上游搜索接口使用的自由文本查询
func SearchQuery(district string) string {
	if district == "" || district == AllDistricts {
		return AllDistricts
	}
	return district + " " + AllDistricts
}
