package test

import (
	"encoding/hex"
	"sync"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/cmp-ia/pkg/paillier"
)

// safePrimes are 1024 bit safe primes p ≡ 3 mod 4, with the top two bits set.
// Generating them takes seconds each, so tests build their Paillier keys from this list.
var safePrimes = [...]string{
	"C38CB8FB0237C2036EC2331A7E31D9AF85D02C85F1DE3E4C41B5D517872CABA03319E56D84558A6C7CEB8E350C7CB8EAA633E7CCA1F485BEC3047C94AE74DCA453FEDB636B906AEB3B2BF8B2FBAFDA54874684618B464844B7B50F5358C63E9F8C28CBA1445A08F87705045B9B1C8CBD7543E310B2BC952D64F3B49F1A38FE23",
	"E62A9525B1215EC75AB8FDBF2ED24F0D8F8D75DDFD0EB2A54559B6B9C595B72FFD811491F25C63A3B4C84AB3F9E4C0C2F362764CDD9C6437D3D4507B713C0DC09959EC55F132AF35DFDF3100183DD939BAE0120724BC13707A2B0E617D715F8131AE209028CEF152EDD3B57C54839B4B91016320C0CDF5812538DAC8C62AEF97",
	"D4C5829CAB189965E2729EF450335E8C70DC9546785E49129DE00E642EDD5DBE3F76D338F90688DB358F63445D2D804AAF426CAD5999145A23178B417564E34A4665B5EFE19DC1CDF8515503C33A1E86858D4D41E870AEDC66276EF941775E27EE5D990BB21EBA5862CE769F03C6936BCF8BB65AACAFEB13FED59ACEA5625DBF",
	"DE89DC1CE48600D0ABF63DECD24EE710F233CB792E0B7EAF5A17E5F931FC647F8FD170CAB11B9B70EBA691B94EE14CF1AB7132A9AF6C2485BDE6C335C8A04500CA1336C19C1CC6C9502B398E8C8C6700FDB9C44921C425B7D35736A6687FBFA180B06D5AB264FDEB9DE67BB72539BD1CA17B7F512406FC21B69619F9D87E7B8F",
	"C2562AEB2EAE6A8C7C9A54CBC31E28782589B47DCB686A5D5A0CB812BAE89B2B979001499FD56613708829A742BC8708A8B2DE6D0A1527CA1113C77203FE5CF503CF4C4B8C8EB4305957822867DB0AD8D318C164FDE73C60D6DA75AECE4FE6288DC05C99BA6F3530D7C94251F1E8103D2F6BD009B7C0398D78C98FDBE5B5B1D7",
	"C031A57B656B2D76410B3E699F1DA60588D11837437FC0C77C1EC47B1447DD139A83E0FEF3F3822A021AC086B23CD0D9C4E8493F151E70ADF359DF3CAE721F42C2ABB648CD06F1AE68D391FC85524BC9E57CEBBF2B8795D63154103D65F90E3EF60FD3756EB4D7A09294BA3E2B95C74DADEDF842059E6376589743001806606F",
	"F951CC9724D34F19E143BC4171525E65962177B89AD8D69A19843DD92EE1ED929222EE90D5E6DEEC391C02BB9034845B9B476DDE6D274FB7973F0893D0D3694CB0951C7352C931D4AA5057A38B353277592787D76C8084D8063C9C75920774D96C00E62AF7F29EFF054C0D89A797B60E2BDC3E97CDE4018BA51E5CAA2A26340B",
	"F8058FCF5D9FFD9FE1CAEFD4DDD339361848AE670BBAF3E89AF74D089BF4EB8BD16F3EEE8AA861B1A63A578EA8EA5D41FC2A1C2C01529C7A416EEAB32F07DBBCA0BBF01231059927275FF100B896D7D00692547EC77963FABDF6E18D3FE32FD2ECB91670A9C77D0C425B66CB3D75A9DF8345553BF1EA3B5EDA1C3339E3A3BBC7",
	"E89DDE6BAC4B0BD94348EDABCC33A9B06497F6D3DA3D35734D02A3BE65154DBDE82A0DBD3136F8F1E30F7B9F65075C77D2E64197A0C7510096C5B3B17FCE4AACFA4C3E0D27088299584AE9ECF510ACA463C7E48AFD7DFAEF2ABB9CC2890804B9DEA9E73208EBA5F1442D2F0FAF6D9A5F50434352419B466CA2145FF44447E6EF",
	"E5B5AB7C38A81724A85E5C24DEB7559FE121A8CC6BCD24F568C8676F3DE2A9A3898C46F5408BBE6C834E04F05B69119C905412558D5D30717DAE22081F4D87284E4B40E7DD9A99924DB514A9C2FE831C9E8DC31786EF3876BE733CD5E8CF4D43B1B138AFA2704CFE9530E76EAD0241F591F270E57060CD63286E55F3A1CF3CDF",
	"CF4003236E477C0800B931F46DA61C7B2875FD088DFA3398BFFD54237FB1A28B423037319B9CF0674629682E031587A7AFCC2C8F9056CE6C39BCEF76275F129DAD529E5F37F871E7241202C43E7624552B1B95816900362963C814B4C12C144BC79F496DE0CC320C03CEB07D8ECC8353BBF8ADFEFC09C3EA6184905AA153D003",
	"C7459042B5599EBFB25DA61F4D141B96C7476E7E45D3D56949934534AFE5E850C2BB17F632E345FB54309EFB226BB7ABEAD3D6C6235B8502A900D715E64C7ADB4A30ED6BF7121AFC3ACE80E94B6B4436D2FE2CDEF85EF519CA4AB23CF6C9A3ACEF03222FD8D1572948E2FB25CB21952FF1713826F456C82CBABEEB0796A12D03",
	"E51426EF8B23C3FB758635722DACDA201274F9D440AC4568F2EA035AFB049BA74D1DBD548A8028260AC5D6D5BB54450B9DFB65DCC2F3DADF8C84827421599C142552BC44EC05984152958A0FF75C54DAA7B6C050800E2BA6738DE4ED56A2DFF519BF2B01A9EBDD0121DFAEBF4262E4166D2519DE39F6B9C32FA1B2866C0C5DA3",
	"CB267A35C0199E85C21C9D40828A4C64AA8FB1CAA1ADBB5925658C41C6E8EE7FDD68FF2CFCAFF6AE64C896D756FE2FBC1C92FBB9216579E139CE8F515A48E77D15B2D8BB1FD44237AE7FE50266976D3B4976F8278EAE8BD55FC802B8F11AB043F3EEE5520A28E9D60A2F761903A74941F520CC097257429438C91DC63BB4E277",
	"C64E2AED4FD7F13F150330DE18D95515A6DF4356C85B5DE91F313FBBA6873231752FB4813119140E0A9AF254A11039BA55224B5DB61AEE87BD233DE1AB2085BE3D9AECB4E2929533FD1AB53B77FF5B4CF10046DCEB7B0A43123D66CC886B89810704376CFDD23692F7529F5769BF6FBCBA55BDCF65A7838D3D13768BF6858EBF",
	"F74BDC05F99FA545962C2B58D9C4B106ED3ECF3A898306C1A42D8206DD21C181547DB4C65204EA61F3B5503CD6E672EBE56462168E60C066854A91911E53EAEC7A5F1332DA73350C8E5F168AD693E583FE634E515D008B7F3140D1903140F67F4A2BEAB696EEBCDAFB76CE8BCB1355479B5DBE047EE2C2F1FA9E73D5015AAA7B",
}

var (
	paillierKeys     [len(safePrimes) / 2]*paillier.SecretKey
	paillierKeysOnce [len(safePrimes) / 2]sync.Once
)

// PaillierKeyCount is the number of distinct fixture keys returned by PaillierSecretKey.
const PaillierKeyCount = len(safePrimes) / 2

// PaillierSecretKey returns the i-th fixture Paillier key, for 0 ≤ i < PaillierKeyCount.
func PaillierSecretKey(i int) *paillier.SecretKey {
	i %= PaillierKeyCount
	paillierKeysOnce[i].Do(func() {
		paillierKeys[i] = paillier.NewSecretKeyFromPrimes(natFromHex(safePrimes[2*i]), natFromHex(safePrimes[2*i+1]))
	})
	return paillierKeys[i]
}

func natFromHex(s string) *saferith.Nat {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return new(saferith.Nat).SetBytes(b)
}
